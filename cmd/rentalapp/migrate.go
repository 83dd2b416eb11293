package main

import (
	"context"

	"github.com/sntnmjones/RentalApp/store"
	"github.com/urfave/cli/v3"
)

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the database schema",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Drop every table first. Destroys all data.",
			},
		},
		Action: r.Migrate,
	}
}

// Migrate creates any missing tables and indexes, dropping them first when
// --reset is given.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := store.Open(store.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("reset") {
		r.logger.Warn("dropping all tables", "driver", cfg.Database.Driver)
		if err := store.Reset(ctx, db); err != nil {
			return err
		}
	}

	r.logger.Info("running database migrations", "driver", cfg.Database.Driver)
	if err := store.Migrate(ctx, db); err != nil {
		return err
	}
	return r.writePlain("✓ Schema is up to date (%s)\n", cfg.Database.Driver)
}
