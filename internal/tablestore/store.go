package tablestore

import "context"

// Record is one row of a named table: an opaque store-assigned id plus a
// field-name-to-value map.
type Record struct {
	ID     string
	Fields map[string]any
}

// Filter is an equality predicate on a named field.
type Filter struct {
	Field string
	Value string
}

// Store is a generic key-field-addressable table store reachable over a
// network API. The Airtable client and the sqlite store both implement it.
type Store interface {
	List(ctx context.Context, table string, filter *Filter) ([]Record, error)
	Get(ctx context.Context, table string, recordID string) (*Record, error)
	Create(ctx context.Context, table string, fields map[string]any) (*Record, error)
	Update(ctx context.Context, table string, recordID string, fields map[string]any) error
	Delete(ctx context.Context, table string, recordID string) error
}
