package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/todoapi/internal/model"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List todos",
	Long: `List todos in creation order.

Examples:
  todo-server todos list
  todo-server todos ls --pending`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listPending bool

func init() {
	listCmd.Flags().BoolVar(&listPending, "pending", false, "Hide completed todos")
}

func runList(cmd *cobra.Command, args []string) error {
	todos, err := newClient().List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list todos: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(todos) == 0 {
		fmt.Fprintln(out, "No todos found. Add one with: todo-server todos add \"Your todo\"")
		return nil
	}

	pending := 0
	for _, t := range todos {
		if !t.Completed {
			pending++
		}
	}

	fmt.Fprintf(out, "\n%s\n", headerStyle.Render(fmt.Sprintf("Todos (%d pending)", pending)))
	fmt.Fprintln(out, mutedStyle.Render(strings.Repeat("─", 72)))

	for _, t := range todos {
		if listPending && t.Completed {
			continue
		}
		printTodo(cmd, t)
	}
	fmt.Fprintln(out)
	return nil
}

func printTodo(cmd *cobra.Command, t model.Todo) {
	icon := "[ ]"
	title := pendingStyle.Render(t.Title)
	if t.Completed {
		icon = "[x]"
		title = doneStyle.Render(t.Title)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s  %s  %s\n",
		icon,
		mutedStyle.Render(t.ID),
		title,
		mutedStyle.Render(t.UpdatedAt.Format(model.TimestampLayout)))
}
