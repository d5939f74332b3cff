package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/huntboard/internal/adapters/remote/postgres"
	"github.com/okian/huntboard/internal/config"
)

// migrateCmd creates the leaderboard table and its change trigger.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the leaderboard table and change trigger",
	Long: `Apply the leaderboard schema to the store named by HUNT_STORE_URL.

The schema is idempotent: the table, index, notify function and trigger are
created or replaced. The trigger fires pg_notify on notify_channel after
every insert, update or delete.

Use --print to write the SQL to stdout instead of applying it.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("print", false, "print the schema instead of applying it")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		_, err := fmt.Fprint(cmd.OutOrStdout(), postgres.Schema(cfg.NotifyChannel))
		return err
	}

	if err := cfg.StoreStatus(); err != nil {
		return fmt.Errorf("%w\n%s", err, config.Remediation)
	}
	dsn, err := postgres.DSN(cfg.StoreURL, cfg.StoreKey)
	if err != nil {
		return fmt.Errorf("invalid store url: %w", err)
	}
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx, cfg.NotifyChannel); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema applied (notify channel %q)\n", cfg.NotifyChannel)
	return nil
}
