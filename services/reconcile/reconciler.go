package reconcile

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// State of a pass. A reconciler runs exactly one Idle → Streaming →
// Finalizing → Done cycle; a new pass always starts from a fresh reconciler
// and recomputes the seen-key set from scratch.
type State int

const (
	Idle State = iota
	Streaming
	Finalizing
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Policy decides what happens to a leaf whose required link cannot be
// resolved: drop it from tracking entirely or insert it with a null link.
type Policy int

const (
	InsertUnlinked Policy = iota
	DropUnresolved
)

func (p Policy) String() string {
	switch p {
	case InsertUnlinked:
		return "insert-unlinked"
	case DropUnresolved:
		return "drop-unresolved"
	default:
		return "unknown"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "insert-unlinked":
		return InsertUnlinked, nil
	case "drop-unresolved":
		return DropUnresolved, nil
	default:
		return 0, errors.Errorf("unknown unresolved policy %q", s)
	}
}

// Config tunes a pass for the shape of its source.
type Config struct {
	// Policy applies to leaves with a missing required link.
	Policy Policy
	// RequireParent marks the parent link mandatory for leaves.
	RequireParent bool
	// RequireChild marks the child link mandatory for leaves.
	RequireChild bool
	// Now overrides the pass clock, for tests.
	Now func() time.Time
}

// Stats are the counters reported when a pass reaches Done.
type Stats struct {
	Seen       int // leaf observations consumed
	Inserted   int // leaves inserted fresh
	Resolved   int // leaves carrying a resolved child link
	Unresolved int // leaves whose required link could not be resolved
	Removed    int // active leaves absent from this pass
}

// Reconciler drives one full sync pass: it consumes the observation stream,
// upserts in strict parent → child → leaf order, accumulates the seen-key set
// and finally soft-deletes every previously active leaf that was not
// observed. Execution is single-threaded and synchronous; callers must
// serialize passes against the same store.
type Reconciler struct {
	store Store
	cfg   Config

	resolver *Resolver
	state    State
	passAt   time.Time
	seen     map[Key]struct{}
	stats    Stats
}

func New(store Store, cfg Config) *Reconciler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Reconciler{
		store: store,
		cfg:   cfg,
		state: Idle,
	}
}

// State returns the current pass state.
func (r *Reconciler) State() State {
	return r.state
}

// Run executes the pass and reports final counters. Fatal source or store
// errors abort the pass; the caller owns the transaction scope and discards
// staged writes on error. A reconciler is not restartable mid-pass: Run may
// be called once.
func (r *Reconciler) Run(ctx context.Context, src Source) (*Stats, error) {
	if r.state != Idle {
		return nil, errors.Errorf("pass already started (state %s)", r.state)
	}
	r.state = Streaming
	r.passAt = r.cfg.Now().UTC()
	r.seen = make(map[Key]struct{})
	r.resolver = NewResolver(r.store, func() time.Time { return r.passAt })

	err := src.Each(ctx, func(obs Observation) error {
		return r.observe(ctx, obs)
	})
	if err != nil {
		return nil, err
	}

	r.state = Finalizing
	active, err := r.store.ListActiveLeaves(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list active leaves")
	}
	for key, id := range active {
		if _, ok := r.seen[key]; ok {
			continue
		}
		if err := r.store.MarkRemoved(ctx, id, r.passAt); err != nil {
			return nil, errors.Wrapf(err, "mark %s removed", key)
		}
		r.stats.Removed++
	}

	r.state = Done
	return &r.stats, nil
}

// observe resolves one observation in dependency order. An unresolvable link
// never aborts the pass: already-resolved parent and child entities stay
// persisted for reuse by later observations.
func (r *Reconciler) observe(ctx context.Context, obs Observation) error {
	var links Links
	if obs.Parent != nil {
		id, _, err := r.resolver.Resolve(ctx, KindParent, *obs.Parent, Links{})
		if err != nil {
			return err
		}
		links.ParentID = &id
	}
	if obs.Child != nil {
		id, _, err := r.resolver.ResolveLinked(ctx, KindChild, *obs.Child, Links{ParentID: links.ParentID})
		switch {
		case err == nil:
			links.ChildID = &id
		case errors.Is(err, ErrUnresolvedParent):
			// the leaf accounting below picks this up
		default:
			return err
		}
	}
	if obs.Leaf == nil {
		return nil
	}

	r.stats.Seen++
	r.seen[obs.Leaf.Key] = struct{}{}

	missing := (r.cfg.RequireParent && links.ParentID == nil) ||
		(r.cfg.RequireChild && links.ChildID == nil)
	if missing {
		r.stats.Unresolved++
		if r.cfg.Policy == DropUnresolved {
			log.WithField("key", obs.Leaf.Key.String()).Debug("dropping file with unresolved link")
			return nil
		}
	}
	_, inserted, err := r.resolver.Resolve(ctx, KindLeaf, *obs.Leaf, links)
	if err != nil {
		return err
	}
	if inserted {
		r.stats.Inserted++
	}
	if links.ChildID != nil {
		r.stats.Resolved++
	}
	return nil
}
