package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// Scan is the persisted record of one sync pass.
type Scan struct {
	tableName struct{} `pg:"scan"`

	ScanID     uuid.UUID  `pg:"scan_id,pk,type:uuid,default:uuid_generate_v4()"`
	Source     string     `pg:"source,notnull"`
	StartedAt  time.Time  `pg:"started_at,notnull,default:now()"`
	FinishedAt *time.Time `pg:"finished_at"`
	Seen       int        `pg:"seen,notnull,use_zero"`
	Inserted   int        `pg:"inserted,notnull,use_zero"`
	Resolved   int        `pg:"resolved,notnull,use_zero"`
	Unresolved int        `pg:"unresolved,notnull,use_zero"`
	Removed    int        `pg:"removed,notnull,use_zero"`
}

// StartScan records the beginning of a sync pass.
func StartScan(ctx context.Context, db pg.DBI, source string, at time.Time) (*Scan, error) {
	s := &Scan{
		Source:    source,
		StartedAt: at,
	}
	_, err := db.ModelContext(ctx, s).Insert()
	if err != nil {
		return nil, errors.Wrap(err, "failed to record scan start")
	}
	return s, nil
}

// FinishScan stamps the completion time and persists the pass counters set
// on s by the caller.
func FinishScan(ctx context.Context, db pg.DBI, s *Scan) error {
	now := time.Now().UTC()
	s.FinishedAt = &now
	_, err := db.ModelContext(ctx, s).
		WherePK().
		Column("finished_at", "seen", "inserted", "resolved", "unresolved", "removed").
		Update()
	if err != nil {
		return errors.Wrap(err, "failed to record scan result")
	}
	return nil
}

// GetRecentScans returns the latest pass records, newest first.
func GetRecentScans(ctx context.Context, db pg.DBI, limit int) ([]Scan, error) {
	var scans []Scan
	err := db.ModelContext(ctx, &scans).
		Order("started_at DESC").
		Limit(limit).
		Select()
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch recent scans")
	}
	return scans, nil
}
