package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"registry/internal/config"
	"registry/internal/logging"
	"registry/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	// Resolved in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "registry",
	Short: "Issue-driven record registry",
	Long: `registry turns issue-form submissions into rows of a SQLite users table.

A submission is either a frontmatter block (--- key: value ---) or a form
body with ### headings. Submissions without a Record ID create a record owned
by the author; submissions with one update it, and only the original author
may do so.

In GitHub Actions run "registry process" with GITHUB_EVENT_PATH, GITHUB_TOKEN
and GITHUB_REPOSITORY set.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file (optional)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the process logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		loaded.Database.Path = dbPath
	}

	l, err := logging.New(logging.Options{
		Level:   loaded.Logging.Level,
		Format:  loaded.Logging.Format,
		Verbose: verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, logger = loaded, l
	logging.For(logger, logging.CategoryBoot).Debug("configuration loaded",
		zap.String("config", configPath),
		zap.String("db", cfg.Database.Path),
		zap.String("repository", cfg.GitHub.Repository))
	return nil
}

// openStore opens the configured database. Callers close it.
func openStore() (*store.Store, error) {
	return store.Open(cfg.Database.Path,
		store.WithBusyTimeout(cfg.Database.BusyTimeout),
		store.WithLogger(logger))
}
