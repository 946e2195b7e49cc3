package repository

// ListOptions carries pagination and ordering for list queries. OrderBy
// names a column already vetted by the resource configuration; the
// repositories never receive caller input directly.
type ListOptions struct {
	OrderBy    string
	Descending bool
	Limit      int
	Offset     int
}
