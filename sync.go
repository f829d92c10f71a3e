package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/tvfiles-io/tracker/services/fswalk"
	"github.com/tvfiles-io/tracker/services/pgstore"
	"github.com/tvfiles-io/tracker/services/plex"
	"github.com/tvfiles-io/tracker/services/reconcile"
	"github.com/tvfiles-io/tracker/services/sonarr"
	ts "github.com/tvfiles-io/tracker/services/sync"
)

func makeSyncCMD() cli.Command {
	syncCMD := cli.Command{
		Name:    "sync",
		Aliases: []string{"s"},
		Usage:   "Reconciles a source inventory against the tracked file set",
	}
	configureSync(&syncCMD)
	return syncCMD
}

func configureSync(c *cli.Command) {
	fsCmd := cli.Command{
		Name:   "fs",
		Usage:  "Syncs local directory trees",
		Action: syncFS,
	}
	fsCmd.Flags = fswalk.RegisterFlags(fsCmd.Flags)
	plexCmd := cli.Command{
		Name:   "plex",
		Usage:  "Syncs the Plex TV catalog",
		Action: syncPlex,
	}
	plexCmd.Flags = plex.RegisterFlags(plexCmd.Flags)
	sonarrCmd := cli.Command{
		Name:   "sonarr",
		Usage:  "Syncs the Sonarr episode file inventory",
		Action: syncSonarr,
	}
	sonarrCmd.Flags = sonarr.RegisterFlags(sonarrCmd.Flags)
	c.Subcommands = []cli.Command{fsCmd, plexCmd, sonarrCmd}
	for k := range c.Subcommands {
		c.Subcommands[k].Flags = cs.RegisterPGFlags(c.Subcommands[k].Flags)
	}
}

func syncFS(c *cli.Context) error {
	// Setting DB
	pg := cs.NewPG(c)
	defer pg.Close()

	// Setting Migrations
	if err := pgMigrate(c); err != nil {
		return err
	}

	ctx := context.Background()
	db := pg.Get()
	if db == nil {
		return errors.Wrap(reconcile.ErrStoreUnavailable, "db is not initialized")
	}

	// previously registered roots get re-walked on every pass
	roots, err := pgstore.New(db, pgstore.FS).ListParentPaths(ctx)
	if err != nil {
		return err
	}

	_, err = ts.New(pg).Run(ctx, fswalk.New(c, roots), ts.PassConfig{
		Source: "fs",
		Tables: pgstore.FS,
	})
	return err
}

func syncPlex(c *cli.Context) error {
	// Setting DB
	pg := cs.NewPG(c)
	defer pg.Close()

	// Setting Migrations
	if err := pgMigrate(c); err != nil {
		return err
	}

	// Setting Plex Api
	api := plex.New(c, http.DefaultClient)
	if api == nil {
		return errors.New("plex api is not configured")
	}

	_, err := ts.New(pg).Run(context.Background(), plex.NewSource(api), ts.PassConfig{
		Source: "plex",
		Tables: pgstore.Plex,
		Reconcile: reconcile.Config{
			Policy:        reconcile.DropUnresolved,
			RequireParent: true,
			RequireChild:  true,
		},
	})
	return err
}

func syncSonarr(c *cli.Context) error {
	// Setting DB
	pg := cs.NewPG(c)
	defer pg.Close()

	// Setting Migrations
	if err := pgMigrate(c); err != nil {
		return err
	}

	// Setting Sonarr Api
	api := sonarr.New(c, http.DefaultClient)
	if api == nil {
		return errors.New("sonarr api is not configured")
	}

	policy, err := sonarr.Policy(c)
	if err != nil {
		return err
	}

	_, err = ts.New(pg).Run(context.Background(), sonarr.NewSource(api), ts.PassConfig{
		Source: "sonarr",
		Tables: pgstore.Sonarr,
		Reconcile: reconcile.Config{
			Policy:        policy,
			RequireParent: true,
			RequireChild:  true,
		},
	})
	return err
}
