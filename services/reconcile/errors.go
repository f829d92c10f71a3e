package reconcile

import (
	"github.com/pkg/errors"
)

// Error taxonomy of a sync pass. Fatal kinds abort the whole pass and leave
// the store untouched via the pass transaction; ErrUnresolvedParent only ever
// feeds pass counters.
var (
	// ErrSourceUnavailable is wrapped by observation sources that cannot be
	// reached or read. Fatal.
	ErrSourceUnavailable = errors.New("observation source unavailable")

	// ErrStoreUnavailable is wrapped by stores when the persistence layer is
	// unreachable mid-pass. Fatal.
	ErrStoreUnavailable = errors.New("lifecycle store unavailable")

	// ErrUnresolvedParent signals that a required link could not be resolved
	// for an observation. Counted and skipped, never fatal.
	ErrUnresolvedParent = errors.New("unresolved parent link")

	// ErrDuplicateKey signals a blind insert for an existing natural key.
	// The resolver always checks existence first, so this surfacing means a
	// broken contract, not a recoverable runtime condition.
	ErrDuplicateKey = errors.New("duplicate natural key")
)
