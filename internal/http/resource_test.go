package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResourceConfig() ResourceConfig {
	return ResourceConfig{
		Name:           "post",
		AllowedMethods: map[string]bool{http.MethodGet: true},
		FilterableFields: map[string]FilterCapability{
			"school":               FilterExact,
			"school__email_domain": FilterExact,
			"date":                 FilterDate,
		},
		OrderableFields: map[string]string{"date": "pub_date"},
	}
}

func TestResourceConfigValidate(t *testing.T) {
	require.NoError(t, testResourceConfig().Validate())

	cfg := testResourceConfig()
	cfg.Name = ""
	assert.Error(t, cfg.Validate())

	cfg = testResourceConfig()
	cfg.AllowedMethods = nil
	assert.Error(t, cfg.Validate())

	cfg = testResourceConfig()
	cfg.AllowedMethods[http.MethodPatch] = true
	assert.Error(t, cfg.Validate())

	// range suffixes belong to the capability, never to the field name
	cfg = testResourceConfig()
	cfg.FilterableFields["date__gte"] = FilterExact
	assert.Error(t, cfg.Validate())

	cfg = testResourceConfig()
	cfg.OrderableFields["title"] = ""
	assert.Error(t, cfg.Validate())
}

func listContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/post/?"+rawQuery, nil)
	return c
}

func TestParseListParamsDefaults(t *testing.T) {
	params, err := parseListParams(listContext(t, ""), testResourceConfig(), 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, params.limit)
	assert.Equal(t, 0, params.offset)
	assert.Empty(t, params.orderBy)
	assert.Empty(t, params.filters)
}

func TestParseListParamsFilters(t *testing.T) {
	params, err := parseListParams(
		listContext(t, "school=3&date__gte=2026-01-01&ordering=-date&limit=5&offset=10"),
		testResourceConfig(), 20, 100,
	)
	require.NoError(t, err)
	assert.Equal(t, "3", params.filters["school"])
	assert.Equal(t, "2026-01-01", params.filters["date__gte"])
	assert.Equal(t, "pub_date", params.orderBy)
	assert.True(t, params.descending)
	assert.Equal(t, 5, params.limit)
	assert.Equal(t, 10, params.offset)
}

func TestParseListParamsRejectsUnknowns(t *testing.T) {
	cfg := testResourceConfig()

	_, err := parseListParams(listContext(t, "poster=1"), cfg, 20, 100)
	assert.ErrorContains(t, err, `unknown filter "poster"`)

	_, err = parseListParams(listContext(t, "school__gte=1"), cfg, 20, 100)
	assert.ErrorContains(t, err, "does not support ranges")

	_, err = parseListParams(listContext(t, "school__exact=1"), cfg, 20, 100)
	assert.ErrorContains(t, err, "unknown filter")

	_, err = parseListParams(listContext(t, "ordering=title"), cfg, 20, 100)
	assert.ErrorContains(t, err, `unknown ordering field "title"`)

	_, err = parseListParams(listContext(t, "limit=nope"), cfg, 20, 100)
	assert.Error(t, err)

	_, err = parseListParams(listContext(t, "offset=-1"), cfg, 20, 100)
	assert.Error(t, err)
}

func TestParseListParamsClampsLimit(t *testing.T) {
	cfg := testResourceConfig()

	params, err := parseListParams(listContext(t, "limit=500"), cfg, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, params.limit)

	// limit=0 means "as many as allowed"
	params, err = parseListParams(listContext(t, "limit=0"), cfg, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, params.limit)
}

func TestParseListParamsIgnoresReserved(t *testing.T) {
	params, err := parseListParams(listContext(t, "format=json&school=1"), testResourceConfig(), 20, 100)
	require.NoError(t, err)
	assert.Equal(t, "1", params.filters["school"])
	assert.NotContains(t, params.filters, "format")
}

func TestSplitFilterKey(t *testing.T) {
	base, suffix := splitFilterKey("date__gte")
	assert.Equal(t, "date", base)
	assert.Equal(t, "gte", suffix)

	base, suffix = splitFilterKey("date__lte")
	assert.Equal(t, "date", base)
	assert.Equal(t, "lte", suffix)

	// relation traversal is not a range suffix
	base, suffix = splitFilterKey("school__email_domain")
	assert.Equal(t, "school__email_domain", base)
	assert.Empty(t, suffix)
}

func TestParseDateValue(t *testing.T) {
	got, err := parseDateValue("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDateValue("2026-03-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), got)

	_, err = parseDateValue("15/03/2026")
	assert.Error(t, err)
}
