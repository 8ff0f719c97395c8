package cli

import (
	"fmt"

	"github.com/existflow/todoapi/internal/db"
	"github.com/existflow/todoapi/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long: `Create the todos table if it does not exist.

Examples:
  todo-server migrate
  todo-server migrate --reset`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var migrateReset bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateReset, "reset", false, "Drop the schema first (deletes every todo)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	opts := cfg.DatabaseOptions()
	opts.Reset = opts.Reset || migrateReset

	database, err := db.Open(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer database.Close()

	logger.Info("Schema migrated", logger.F("driver", opts.Driver), logger.F("reset", opts.Reset))

	if opts.Reset {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema reset (%s)\n", database.Driver())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema ready (%s)\n", database.Driver())
	}
	return nil
}
