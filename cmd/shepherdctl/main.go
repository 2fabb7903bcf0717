// Command shepherdctl performs administrative tasks against the Shepherd
// database: migrations, accounts, services, check-in tokens and imports.
package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"shepherd/internal/adapters/storage"
	"shepherd/internal/config"
)

const programName = "shepherdctl"

var globalFlags = struct {
	debug bool
	db    string
}{}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          programName,
		Short:        "Administer a Shepherd installation",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if globalFlags.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	root.PersistentFlags().StringVar(&globalFlags.db, "db", "", "database path (overrides SHEPHERD_DB)")

	root.AddCommand(
		migrateCommand(),
		createAdminCommand(),
		addServiceCommand(),
		listServicesCommand(),
		issueTokenCommand(),
		importMembersCommand(),
	)
	return root
}

// openDB loads configuration and returns a migrated database.
func openDB() (config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if globalFlags.db != "" {
		cfg.DBPath = globalFlags.db
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		db.Close()
		return config.Config{}, nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, db, nil
}
