// Package facade exposes the vault indexing engine's command surface
// (index_workspace, index_note, get_indexing_meta, search_notes_for_query,
// resolve_wiki_link_target, get_backlinks, get_graph_view_data,
// list_workspaces, touch_workspace, remove_workspace, get_embedding_config,
// set_embedding_config, create_note) as a single entry point for both the
// MCP server and the CLI, mapping every internal failure to a stable set of
// facade error codes. One indexer now serves N vaults instead of one
// project.
package facade

import (
	"database/sql"
	"log/slog"

	"github.com/mditgo/mditgo/internal/config"
	"github.com/mditgo/mditgo/internal/embedclient"
	"github.com/mditgo/mditgo/internal/logging"
	"github.com/mditgo/mditgo/internal/storage"
)

// Facade bundles the shared database handle and configuration every
// command-surface operation needs. One Facade serves every vault the
// process touches; vault identity is threaded through by workspace root,
// never held as facade-level state.
type Facade struct {
	db     *storage.DB
	cfg    config.Config
	logger *slog.Logger
}

// New builds a Facade over an already-opened database. The first Facade
// constructed also fixes the process-wide embedding HTTP defaults.
func New(db *storage.DB, cfg config.Config, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = logging.Nop()
	}
	embedclient.Configure(cfg.Embedding.BaseURL, cfg.Embedding.Timeout)
	return &Facade{db: db, cfg: cfg, logger: logger}
}

// conn returns the primary connection every operation reads and writes
// through. Search and index scoring run entirely in Go over blobs fetched
// through this same connection; the secondary vector-extension connection
// registered in internal/storage is not required on this path.
func (f *Facade) conn() *sql.DB {
	return f.db.Conn()
}
