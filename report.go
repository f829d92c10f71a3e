package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/tvfiles-io/tracker/models"
	"github.com/tvfiles-io/tracker/services/pgstore"
	"github.com/tvfiles-io/tracker/services/reconcile"
)

const (
	reportLimitFlag = "limit"
)

func makeReportCMD() cli.Command {
	reportCMD := cli.Command{
		Name:    "report",
		Aliases: []string{"r"},
		Usage:   "Prints tracked file counts and recent activity",
		Action:  report,
	}
	reportCMD.Flags = cs.RegisterPGFlags(reportCMD.Flags)
	reportCMD.Flags = append(reportCMD.Flags,
		cli.IntFlag{
			Name:   reportLimitFlag,
			Usage:  "max recent removals and scans to list",
			EnvVar: "REPORT_LIMIT",
			Value:  10,
		},
	)
	return reportCMD
}

func report(c *cli.Context) error {
	// Setting DB
	pg := cs.NewPG(c)
	defer pg.Close()

	db := pg.Get()
	if db == nil {
		return errors.Wrap(reconcile.ErrStoreUnavailable, "db is not initialized")
	}

	ctx := context.Background()
	limit := c.Int(reportLimitFlag)

	sources := []struct {
		name  string
		table string
	}{
		{"fs", pgstore.FS.Leaf},
		{"plex", pgstore.Plex.Leaf},
		{"sonarr", pgstore.Sonarr.Leaf},
	}
	for _, src := range sources {
		counts, err := models.CountFilesByState(ctx, db, src.table)
		if err != nil {
			return err
		}
		fmt.Printf("%-8s active: %10s  removed: %10s\n",
			src.name,
			humanize.Comma(int64(counts.Active)),
			humanize.Comma(int64(counts.Removed)))
		removed, err := models.GetRecentlyRemoved(ctx, db, src.table, limit)
		if err != nil {
			return err
		}
		for _, f := range removed {
			fmt.Printf("  removed %-18s %s\n",
				humanize.Time(f.RemovedDate),
				filepath.Join(f.Dir, f.Name))
		}
	}

	scans, err := models.GetRecentScans(ctx, db, limit)
	if err != nil {
		return err
	}
	for _, s := range scans {
		fmt.Printf("scan %s source=%-7s seen=%d inserted=%d unresolved=%d removed=%d (%s)\n",
			s.ScanID,
			s.Source,
			s.Seen,
			s.Inserted,
			s.Unresolved,
			s.Removed,
			humanize.Time(s.StartedAt))
	}
	return nil
}
