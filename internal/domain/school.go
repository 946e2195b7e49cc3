package domain

import "time"

// School represents an institution whose members may post. Rows are
// provisioned out-of-band; the API never creates or mutates them.
type School struct {
	ID          int64
	Name        string
	EmailDomain string
	CreatedAt   time.Time
}
