package main

import (
	"context"
	"log"
	"os"
	"slices"

	"github.com/biasnet/influence/cmd/db/commands"
	"github.com/biasnet/influence/internal/database/migrations"
	"github.com/biasnet/influence/internal/setup"
	"github.com/biasnet/influence/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
)

// DBLogDir specifies where database tool log files are stored.
const DBLogDir = "logs/db_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// The tool manages migrations itself, so it never prompts for them
	app, err := setup.InitializeApp(ctx, telemetry.ServiceCLI, DBLogDir, setup.Options{SkipMigrationCheck: true})
	if err != nil {
		return err
	}
	defer app.Cleanup(ctx)

	deps := &commands.CLIDependencies{
		DB:       app.DB,
		Migrator: migrate.NewMigrator(app.DB.DB(), migrations.Migrations),
		Logger:   app.Logger,
	}

	cmd := &cli.Command{
		Name:  "db",
		Usage: "Database management tool",
		Commands: slices.Concat(
			commands.MigrationCommands(deps),
			commands.MaintenanceCommands(deps),
		),
	}

	return cmd.Run(ctx, os.Args)
}
