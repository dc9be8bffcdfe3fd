package main

import (
	"fmt"

	"github.com/WangWilly/tweetsim/pkgs/database"
	"github.com/gookit/color"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

func connect(c *cli.Context) (*sqlx.DB, error) {
	conf, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return database.ConnectWithConfig(conf.Database)
}

func migrateUpCommand(c *cli.Context) error {
	db, err := connect(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(c.Context, db); err != nil {
		return err
	}
	return migrateVersion(c, db)
}

func migrateDownCommand(c *cli.Context) error {
	db, err := connect(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.MigrateDown(db); err != nil {
		return err
	}
	return migrateVersion(c, db)
}

func migrateVersionCommand(c *cli.Context) error {
	db, err := connect(c)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrateVersion(c, db)
}

func migrateVersion(c *cli.Context, db *sqlx.DB) error {
	version, dirty, err := database.MigrationVersion(db)
	if err != nil {
		return err
	}
	state := color.FgGreen.Render("clean")
	if dirty {
		state = color.FgRed.Render("dirty")
	}
	fmt.Fprintf(c.App.Writer, "schema version %d (%s)\n", version, state)
	return nil
}
