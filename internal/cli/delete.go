package cli

import (
	"errors"
	"fmt"

	"github.com/existflow/todoapi/internal/client"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [todo-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a todo",
	Long: `Delete a todo permanently.

Examples:
  todo-server todos delete 0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d
  todo-server todos rm 0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]

	if err := newClient().Delete(cmd.Context(), id); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("todo not found: %s", id)
		}
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", dangerStyle.Render("🗑️  Deleted:"), id)
	return nil
}
