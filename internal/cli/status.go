package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vistoria/fieldsync/internal/db"
	"github.com/vistoria/fieldsync/internal/models"
)

// NewStatusCommand creates the status command: a local-only report of the
// queue and pull watermarks, no network involved.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local queue and watermark state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}

			database, err := db.Open(cfg.DataDir)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(database); err != nil {
				return err
			}

			store := db.NewStore(database)
			out := cmd.OutOrStdout()

			pending, err := store.PendingCount()
			if err != nil {
				return err
			}
			failed, err := store.FailedOperations(cfg.Sync.MaxAttempts)
			if err != nil {
				return err
			}
			unsynced, err := store.UnsyncedCount()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "queued operations: %d\n", pending)
			fmt.Fprintf(out, "failed operations: %d\n", len(failed))
			fmt.Fprintf(out, "unsynced rows:     %d\n", unsynced)

			for _, entity := range models.Entities {
				mark, err := store.Watermark(entity)
				if err != nil {
					return err
				}
				if mark == "" {
					mark = "(never pulled)"
				}
				fmt.Fprintf(out, "last pull %-22s %s\n", entity.Table()+":", mark)
			}

			for _, entry := range failed {
				fmt.Fprintf(out, "stuck: seq=%d %s %s/%s attempts=%d error=%s\n",
					entry.Seq, entry.Op, entry.Table, entry.RecordID, entry.Attempts, entry.Error)
			}
			return nil
		},
	}
}
