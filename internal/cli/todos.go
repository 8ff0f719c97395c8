package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/todoapi/internal/client"
	"github.com/spf13/cobra"
)

var serverURL string

var todosCmd = &cobra.Command{
	Use:     "todos",
	Aliases: []string{"t"},
	Short:   "Manage todos on a running server",
	Long: `Create, list, update and delete todos through the HTTP API.

Examples:
  todo-server todos add "Buy groceries"
  todo-server todos list
  todo-server todos done <id>
  todo-server todos --server http://todo.internal:8080 ls`,
	// Console logging stays off unless asked for, it would interleave with output
	PersistentPreRunE: setup(false),
}

func init() {
	defaultServer := os.Getenv("TODO_SERVER")
	if defaultServer == "" {
		defaultServer = client.DefaultServerURL
	}
	todosCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "Todo server URL (env TODO_SERVER)")

	todosCmd.AddCommand(addCmd)
	todosCmd.AddCommand(listCmd)
	todosCmd.AddCommand(doneCmd)
	todosCmd.AddCommand(updateCmd)
	todosCmd.AddCommand(deleteCmd)
}

func newClient() *client.Client {
	return client.New(serverURL)
}

// Color palette shared by the todos commands
var (
	colorDone    = lipgloss.Color("#95E1A3")
	colorPending = lipgloss.Color("#4ECDC4")
	colorMuted   = lipgloss.Color("#888888")
	colorDanger  = lipgloss.Color("#FF6B6B")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPending)

	doneStyle = lipgloss.NewStyle().
			Foreground(colorDone).
			Strikethrough(true)

	pendingStyle = lipgloss.NewStyle()

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorDone)

	dangerStyle = lipgloss.NewStyle().
			Foreground(colorDanger)
)
