package sync

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	cs "github.com/webtor-io/common-services"

	"github.com/tvfiles-io/tracker/models"
	"github.com/tvfiles-io/tracker/services/pgstore"
	"github.com/tvfiles-io/tracker/services/reconcile"
)

// PassConfig describes one source's sync pass.
type PassConfig struct {
	Source    string
	Tables    pgstore.Tables
	Reconcile reconcile.Config
}

// Runner executes sync passes. Every pass runs inside a single transaction
// committed once the removal finalization is staged, so a mid-pass failure
// leaves the store at its prior consistent state.
type Runner struct {
	pg *cs.PG
}

func New(pg *cs.PG) *Runner {
	return &Runner{
		pg: pg,
	}
}

// Run drives one full pass of src against the source's tables and records it
// in the scan history. Passes against the same source must be serialized by
// the caller.
func (r *Runner) Run(ctx context.Context, src reconcile.Source, cfg PassConfig) (*reconcile.Stats, error) {
	db := r.pg.Get()
	if db == nil {
		return nil, errors.Wrap(reconcile.ErrStoreUnavailable, "db is not initialized")
	}
	var stats *reconcile.Stats
	err := db.RunInTransaction(ctx, func(tx *pg.Tx) error {
		scan, err := models.StartScan(ctx, tx, cfg.Source, time.Now().UTC())
		if err != nil {
			return err
		}
		rec := reconcile.New(pgstore.New(tx, cfg.Tables), cfg.Reconcile)
		stats, err = rec.Run(ctx, src)
		if err != nil {
			return err
		}
		scan.Seen = stats.Seen
		scan.Inserted = stats.Inserted
		scan.Resolved = stats.Resolved
		scan.Unresolved = stats.Unresolved
		scan.Removed = stats.Removed
		return models.FinishScan(ctx, tx, scan)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s sync pass failed", cfg.Source)
	}
	log.WithFields(log.Fields{
		"source":     cfg.Source,
		"seen":       stats.Seen,
		"inserted":   stats.Inserted,
		"resolved":   stats.Resolved,
		"unresolved": stats.Unresolved,
		"removed":    stats.Removed,
	}).Info("sync pass completed")
	return stats, nil
}
