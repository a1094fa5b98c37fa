package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vistoria/fieldsync/internal/connectivity"
	"github.com/vistoria/fieldsync/internal/db"
	"github.com/vistoria/fieldsync/internal/remote"
	"github.com/vistoria/fieldsync/internal/sync"
)

// NewSyncCommand creates the sync command: one push/pull cycle and exit.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			database, err := db.Open(cfg.DataDir)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(database); err != nil {
				return err
			}

			ctx := context.Background()
			store := db.NewStore(database)
			client := remote.NewClient(cfg.Remote.URL, cfg.Remote.APIKey, cfg.Remote.Timeout, logger)
			monitor := connectivity.NewMonitor(ctx, client, cfg.Sync.ProbeInterval, logger)

			engine := sync.NewEngine(store, client, monitor, sync.Config{
				Interval:    cfg.Sync.Interval,
				MaxAttempts: cfg.Sync.MaxAttempts,
			}, logger)

			if err := engine.SyncNow(ctx); err != nil {
				return err
			}

			status, err := engine.Status()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sync complete: %d pending, %d failed\n",
				status.PendingCount, status.FailedCount)
			return nil
		},
	}
}
