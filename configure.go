package main

import (
	"github.com/urfave/cli"
)

func configure(app *cli.App) {
	syncCMD := makeSyncCMD()
	reportCMD := makeReportCMD()
	migrationCMD := makePGMigrationCMD()
	app.Commands = []cli.Command{syncCMD, reportCMD, migrationCMD}
}
