package main

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/phrazzld/workforce-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// errMigrationsNeedPostgres is returned when migrate runs against the
// in-memory store, which has no schema.
var errMigrationsNeedPostgres = errors.New("migrations require storage.driver=postgres")

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [" + strings.Join(postgres.MigrationCommands, "|") + "]",
		Short: "Run database migrations",
		Long: `Run goose migrations against storage.database_url.

Examples:
  taskd migrate up
  taskd migrate status
  taskd --config prod.yaml migrate down`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger(*configPath)
			if err != nil {
				return err
			}
			return runMigration(cmd, cfg.Storage.Driver, cfg.Storage.DatabaseURL, args[0], log)
		},
	}
}

// runMigration connects to the database and executes one goose command.
func runMigration(cmd *cobra.Command, driver, databaseURL, command string, log *slog.Logger) error {
	if !slices.Contains(postgres.MigrationCommands, command) {
		return fmt.Errorf("unknown migration command %q", command)
	}
	if driver != "postgres" {
		return errMigrationsNeedPostgres
	}

	ctx := contextOrBackground(cmd.Context())
	db, err := postgres.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database connection", slog.String("error", closeErr.Error()))
		}
	}()

	log.Info("running migrations",
		slog.String("command", command),
		slog.String("database_url", postgres.MaskDatabaseURL(databaseURL)))

	return postgres.Migrate(ctx, db, command, log)
}
