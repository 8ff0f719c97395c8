package cli

import (
	"errors"
	"fmt"

	"github.com/existflow/todoapi/internal/model"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [todo-id]",
	Short: "Change the title or completion of a todo",
	Long: `Change the title and/or completion of a todo. Only the given flags are sent.

Examples:
  todo-server todos update <id> --title "Buy oat milk"
  todo-server todos update <id> --completed=false`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var (
	updateTitle     string
	updateCompleted bool
)

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().BoolVar(&updateCompleted, "completed", false, "Completion state")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	var req model.UpdateTodoRequest
	if cmd.Flags().Changed("title") {
		req.Title = &updateTitle
	}
	if cmd.Flags().Changed("completed") {
		req.Completed = &updateCompleted
	}
	if req.IsEmpty() {
		return errors.New("nothing to update: pass --title and/or --completed")
	}

	todo, err := newClient().Update(cmd.Context(), args[0], req)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s ", successStyle.Render("✓ Updated:"))
	printTodo(cmd, *todo)
	return nil
}
