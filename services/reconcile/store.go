package reconcile

import (
	"context"
	"time"
)

// Row is the persisted identity of an entity.
type Row struct {
	ID      int64
	Removed bool
}

// Links carries the resolved durable identifiers an insert references.
// Dependency order guarantees the referenced rows already exist.
type Links struct {
	ParentID *int64
	ChildID  *int64
}

// Store is the persistence contract a sync pass runs against. All operations
// participate in the caller's pass-scoped transaction. Implementations map
// backend failures to ErrStoreUnavailable and unique violations on Insert to
// ErrDuplicateKey.
type Store interface {
	// FindByKey returns the row for the given natural key, or nil when no
	// such row exists.
	FindByKey(ctx context.Context, kind Kind, key Key) (*Row, error)

	// Insert creates a new row. at stamps added_date (first_added for
	// parents); removed_date starts out null. Insert must not be called for
	// an existing key.
	Insert(ctx context.Context, kind Kind, key Key, attrs Attrs, links Links, at time.Time) (int64, error)

	// ListActiveLeaves returns every leaf key with a null removed_date,
	// mapped to its durable identifier, in one bulk scan.
	ListActiveLeaves(ctx context.Context) (map[Key]int64, error)

	// MarkRemoved stamps removed_date on an active leaf.
	MarkRemoved(ctx context.Context, id int64, at time.Time) error

	// ClearRemoved nulls removed_date on a previously removed leaf.
	ClearRemoved(ctx context.Context, id int64) error
}
