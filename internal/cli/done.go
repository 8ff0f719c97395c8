package cli

import (
	"fmt"

	"github.com/existflow/todoapi/internal/model"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done [todo-id]",
	Short: "Mark a todo as completed",
	Long: `Mark a todo as completed.

Examples:
  todo-server todos done 0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d
  todo-server todos done 0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneUndo bool

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark todo as not completed")
}

func runDone(cmd *cobra.Command, args []string) error {
	done := !doneUndo

	todo, err := newClient().Update(cmd.Context(), args[0], model.UpdateTodoRequest{Completed: &done})
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}

	if done {
		fmt.Fprintf(cmd.OutOrStdout(), "%s \"%s\"\n", successStyle.Render("✓ Completed:"), todo.Title)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "○ Reopened: \"%s\"\n", todo.Title)
	}
	return nil
}
