package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

// FileCounts splits a source's tracked files by lifecycle state.
type FileCounts struct {
	Active  int
	Removed int
}

// CountFilesByState counts active and soft-deleted rows in a leaf table.
func CountFilesByState(ctx context.Context, db pg.DBI, table string) (*FileCounts, error) {
	c := &FileCounts{}
	_, err := db.QueryOneContext(ctx, pg.Scan(&c.Active, &c.Removed),
		"SELECT count(*) FILTER (WHERE removed_date IS NULL), count(*) FILTER (WHERE removed_date IS NOT NULL) FROM ?",
		pg.Ident(table))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to count files in %s", table)
	}
	return c, nil
}

// RemovedFile is one soft-deleted file row.
type RemovedFile struct {
	Name        string
	Dir         string
	RemovedDate time.Time
}

// GetRecentlyRemoved returns the latest soft-deleted files of a leaf table,
// newest removal first.
func GetRecentlyRemoved(ctx context.Context, db pg.DBI, table string, limit int) ([]RemovedFile, error) {
	var files []RemovedFile
	_, err := db.QueryContext(ctx, &files,
		"SELECT name, dir, removed_date FROM ? WHERE removed_date IS NOT NULL ORDER BY removed_date DESC LIMIT ?",
		pg.Ident(table), limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch removed files from %s", table)
	}
	return files, nil
}
