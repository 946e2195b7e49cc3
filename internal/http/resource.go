package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// FilterCapability declares what a filterable field supports.
type FilterCapability int

const (
	// FilterExact allows only field=value.
	FilterExact FilterCapability = iota
	// FilterDate additionally allows field__gte and field__lte range
	// suffixes, with values parsed as dates.
	FilterDate
)

// ResourceConfig declares a resource's allowed methods and its
// filter/ordering whitelists. Configs are validated once at startup;
// request handling only consults them.
type ResourceConfig struct {
	Name             string
	AllowedMethods   map[string]bool
	FilterableFields map[string]FilterCapability
	// OrderableFields maps the query-facing name to the store column.
	OrderableFields map[string]string
}

var knownMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodDelete: true,
}

func (c ResourceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("resource name is required")
	}
	if len(c.AllowedMethods) == 0 {
		return fmt.Errorf("resource %s: no allowed methods", c.Name)
	}
	for m := range c.AllowedMethods {
		if !knownMethods[m] {
			return fmt.Errorf("resource %s: unsupported method %q", c.Name, m)
		}
	}
	for field := range c.FilterableFields {
		if field == "" {
			return fmt.Errorf("resource %s: empty filterable field", c.Name)
		}
		if strings.HasSuffix(field, "__gte") || strings.HasSuffix(field, "__lte") {
			return fmt.Errorf("resource %s: range suffixes are capabilities, not fields: %q", c.Name, field)
		}
	}
	for name, col := range c.OrderableFields {
		if name == "" || col == "" {
			return fmt.Errorf("resource %s: invalid orderable field %q -> %q", c.Name, name, col)
		}
	}
	return nil
}

// listParams is the validated outcome of parsing a list request's query
// string against a resource config.
type listParams struct {
	limit      int
	offset     int
	orderBy    string
	descending bool
	filters    map[string]string
}

// reserved query parameters that are never treated as filters.
var reservedParams = map[string]bool{
	"limit":    true,
	"offset":   true,
	"ordering": true,
	"format":   true,
}

// parseListParams validates every query parameter against the resource's
// whitelists. Unknown filters and unknown ordering fields are client
// errors.
func parseListParams(c *gin.Context, cfg ResourceConfig, defaultLimit, maxLimit int) (listParams, error) {
	params := listParams{
		limit:   defaultLimit,
		offset:  0,
		filters: make(map[string]string),
	}

	for key, values := range c.Request.URL.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]

		if reservedParams[key] {
			continue
		}

		base, suffix := splitFilterKey(key)
		capability, ok := cfg.FilterableFields[base]
		if !ok {
			return params, fmt.Errorf("unknown filter %q", key)
		}
		switch suffix {
		case "":
		case "gte", "lte":
			if capability != FilterDate {
				return params, fmt.Errorf("filter %q does not support ranges", base)
			}
		default:
			return params, fmt.Errorf("unknown filter %q", key)
		}
		params.filters[key] = value
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return params, fmt.Errorf("invalid limit %q", raw)
		}
		params.limit = n
	}
	if params.limit == 0 || params.limit > maxLimit {
		params.limit = maxLimit
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return params, fmt.Errorf("invalid offset %q", raw)
		}
		params.offset = n
	}

	if raw := c.Query("ordering"); raw != "" {
		name := raw
		if strings.HasPrefix(name, "-") {
			params.descending = true
			name = name[1:]
		}
		col, ok := cfg.OrderableFields[name]
		if !ok {
			return params, fmt.Errorf("unknown ordering field %q", name)
		}
		params.orderBy = col
	}

	return params, nil
}

// splitFilterKey separates "date__gte" into ("date", "gte"). Relation
// traversals like "school__email_domain" stay whole: the longest known
// suffixes are only gte/lte.
func splitFilterKey(key string) (base, suffix string) {
	for _, s := range []string{"__gte", "__lte"} {
		if strings.HasSuffix(key, s) {
			return strings.TrimSuffix(key, s), s[2:]
		}
	}
	return key, ""
}

// parseDateValue accepts RFC 3339 timestamps or plain dates.
func parseDateValue(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
