package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vistoria/fieldsync/internal/db"
)

// NewResetCommand creates the reset command. It wipes every local table,
// the operation queue included, so anything not yet pushed is lost.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all local data",
		Long: `Wipe all local data: every entity table, the operation queue, and the
pull watermarks. Queued operations that were never pushed are lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe local data without --yes")
			}

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

			if err := db.NewStore(database).ClearAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local data cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}
