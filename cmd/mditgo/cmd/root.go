// Package cmd provides the CLI commands for mditgo.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mditgo/mditgo/internal/config"
	"github.com/mditgo/mditgo/internal/facade"
	"github.com/mditgo/mditgo/internal/logging"
	"github.com/mditgo/mditgo/internal/storage"
	"github.com/mditgo/mditgo/pkg/version"
)

var (
	dbPath    string
	debugMode bool

	app *appContext
)

// appContext bundles the shared database and façade every subcommand
// operates through, opened once in PersistentPreRunE and closed in
// PersistentPostRunE.
type appContext struct {
	db     *storage.DB
	facade *facade.Facade
	logger *slog.Logger
}

// NewRootCmd creates the root command for the mditgo CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mditgo",
		Short:   "Local-first markdown vault indexing engine",
		Version: version.Short(),
		Long: `mditgo indexes markdown vaults for hybrid BM25/vector search,
tracks wiki-style and markdown links between notes, and serves both an
MCP tool surface and a plain CLI over the same index.

It runs entirely locally against a single embedded SQLite database.`,
	}
	cmd.SetVersionTemplate("mditgo version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the mditgo database file (default: OS application data dir)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug-level logging")

	cmd.PersistentPreRunE = openApp
	cmd.PersistentPostRunE = closeApp

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newWorkspaceCmd())
	cmd.AddCommand(newLinksCmd())
	cmd.AddCommand(newEmbeddingCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func openApp(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	logger := logging.New(logging.Options{Level: level})

	path := dbPath
	if path == "" {
		path = defaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.Open(path, logger)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	cfg := config.Default()
	config.ApplyEnvOverrides(&cfg)

	app = &appContext{
		db:     db,
		facade: facade.New(db, cfg, logger),
		logger: logger,
	}
	return nil
}

func closeApp(*cobra.Command, []string) error {
	if app == nil || app.db == nil {
		return nil
	}
	return app.db.Close()
}

// defaultDBPath resolves mditgo's default database location under the OS
// application-data directory, so a user never has to pass --db by hand.
func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir, _ = os.UserHomeDir()
		if dir == "" {
			dir = "."
		}
	}
	return filepath.Join(dir, "mditgo", "mditgo.db")
}

// absRoot resolves a CLI-supplied vault path the way every subcommand
// expects: defaulting to the current directory, then making it absolute.
func absRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	return filepath.Abs(path)
}
