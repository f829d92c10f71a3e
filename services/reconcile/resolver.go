package reconcile

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Resolver ensures a persisted row exists for an observed entity and returns
// its durable identifier. Attributes are first-write-wins: a re-observed
// entity keeps whatever was stored when it was first seen.
type Resolver struct {
	store Store
	now   func() time.Time
}

func NewResolver(store Store, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		store: store,
		now:   now,
	}
}

// Resolve returns the durable identifier for the entity, inserting it if it
// is not persisted yet. For leaves, re-observation of a removed row clears
// removed_date (reappearance) even though attributes are left untouched.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, e Entity, links Links) (int64, bool, error) {
	row, err := r.store.FindByKey(ctx, kind, e.Key)
	if err != nil {
		return 0, false, errors.Wrapf(err, "find %s %s", kind, e.Key)
	}
	if row != nil {
		if kind == KindLeaf && row.Removed {
			if err := r.store.ClearRemoved(ctx, row.ID); err != nil {
				return 0, false, errors.Wrapf(err, "clear removed %s %s", kind, e.Key)
			}
		}
		return row.ID, false, nil
	}
	id, err := r.store.Insert(ctx, kind, e.Key, e.Attrs, links, r.now())
	if err != nil {
		return 0, false, errors.Wrapf(err, "insert %s %s", kind, e.Key)
	}
	return id, true, nil
}

// ResolveLinked is Resolve for kinds that require a parent link. It signals
// ErrUnresolvedParent instead of inserting when the link is missing, so the
// caller can count the observation and continue.
func (r *Resolver) ResolveLinked(ctx context.Context, kind Kind, e Entity, links Links) (int64, bool, error) {
	if links.ParentID == nil {
		return 0, false, errors.Wrapf(ErrUnresolvedParent, "%s %s", kind, e.Key)
	}
	return r.Resolve(ctx, kind, e, links)
}
