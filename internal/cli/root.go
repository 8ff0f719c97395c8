package cli

import (
	"fmt"

	"github.com/existflow/todoapi/internal/config"
	"github.com/existflow/todoapi/internal/logger"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X ...cli.version=..."
var version = "dev"

var (
	configPath string
	logLevel   string
	logFile    string
	logConsole bool

	// cfg is loaded before any command runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "todo-server",
	Short: "Todo CRUD service",
	Long: `todo-server serves create/read/update/delete operations over todo items,
stored in PostgreSQL (or SQLite when TESTING is set).

Run 'todo-server' without arguments to start the HTTP server.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup(true),
	RunE:              runServe,
	PersistentPostRun: teardown,
}

// setup loads the configuration and initialises the logger.
// consoleDefault applies when neither config nor flags set console logging.
func setup(consoleDefault bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		// Override with CLI flags if provided
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
		}
		console := cfg.LogConsole && consoleDefault
		if cmd.Flags().Changed("log-console") {
			console = logConsole
		}

		logConfig := logger.DefaultConfig()
		logConfig.Level = logger.ParseLevel(cfg.LogLevel)
		logConfig.FilePath = cfg.LogFile
		logConfig.Console = console

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Debug("todo-server started", logger.F("command", cmd.Name()), logger.F("version", version))
		return nil
	}
}

func teardown(cmd *cobra.Command, args []string) {
	logger.Debug("todo-server exiting", logger.F("command", cmd.Name()))
	_ = logger.Close()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $TODO_CONFIG or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(todosCmd)
}
