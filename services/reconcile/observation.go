package reconcile

import (
	"context"
	"time"
)

// Attrs carries the structural attributes of an entity at the moment it was
// observed. Field relevance depends on the entity kind. Attributes are
// first-write-wins: whatever was stored when the entity was first seen stays.
type Attrs struct {
	Title     string
	Path      *string
	Season    *int
	Episode   *int
	CreatedAt *time.Time
}

// Entity is one keyed entity extracted from a raw observation.
type Entity struct {
	Key   Key
	Attrs Attrs
}

// Observation describes the current state of one observed item. Parent and
// child are optional. An observation may carry no leaf at all, which
// registers the parent (and child) without marking anything as seen.
type Observation struct {
	Parent *Entity
	Child  *Entity
	Leaf   *Entity
}

// Source produces a finite, restartable-per-invocation sequence of
// observations. Implementations must fail fast with an error wrapping
// ErrSourceUnavailable on connection or auth failure and must not silently
// deliver partial data on error.
type Source interface {
	Each(ctx context.Context, fn func(Observation) error) error
}
