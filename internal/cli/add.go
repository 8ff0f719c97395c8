package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new todo",
	Long: `Add a new todo. Multiple arguments are joined with spaces.

Examples:
  todo-server todos add "Buy groceries"
  todo-server todos add Call the plumber`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	title := strings.Join(args, " ")

	todo, err := newClient().Create(cmd.Context(), title)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s \"%s\" %s\n",
		successStyle.Render("✓ Added:"), todo.Title, mutedStyle.Render(todo.ID))
	return nil
}
