package facade

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

// mcpServerName/Version identify this process to MCP clients.
const (
	mcpServerName    = "mditgo"
	mcpServerVersion = "0.1.0"
)

// NewMCPServer builds an MCP server exposing the indexing engine's command
// surface as tools.
func NewMCPServer(f *Facade) *server.MCPServer {
	s := server.NewMCPServer(
		mcpServerName,
		mcpServerVersion,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	s.AddTool(mcp.NewTool("index_workspace",
		mcp.WithDescription("Re-scan a vault and synchronize its index with the files on disk"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
		mcp.WithBoolean("force", mcp.Description("Rebuild every doc's chunks/embeddings regardless of prior state")),
	), f.handleIndexWorkspace)

	s.AddTool(mcp.NewTool("index_note",
		mcp.WithDescription("Synchronize a single note against the vault's stored index"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Vault-relative path to the note"), mcp.Required()),
	), f.handleIndexNote)

	s.AddTool(mcp.NewTool("get_indexing_meta",
		mcp.WithDescription("Return lightweight indexing status for a vault"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
	), f.handleGetIndexingMeta)

	s.AddTool(mcp.NewTool("search_notes_for_query",
		mcp.WithDescription("Hybrid BM25/vector search over a vault's notes"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
		mcp.WithString("query", mcp.Description("Free-text search query"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
	), f.handleSearchNotesForQuery)

	s.AddTool(mcp.NewTool("resolve_wiki_link_target",
		mcp.WithDescription("Resolve a raw [[wiki link]] target against a vault's notes"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
		mcp.WithString("raw_target", mcp.Description("The text inside the [[...]] brackets"), mcp.Required()),
		mcp.WithString("current_note_path", mcp.Description("Vault-relative path of the note containing the link, for tie-breaking")),
	), f.handleResolveWikiLinkTarget)

	s.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("List notes that link to a given note"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Vault-relative path to the target note"), mcp.Required()),
	), f.handleGetBacklinks)

	s.AddTool(mcp.NewTool("get_graph_view_data",
		mcp.WithDescription("Return the full link graph (nodes and edges) for a vault"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
	), f.handleGetGraphViewData)

	s.AddTool(mcp.NewTool("list_workspaces",
		mcp.WithDescription("List every known vault, most recently opened first"),
	), f.handleListWorkspaces)

	s.AddTool(mcp.NewTool("touch_workspace",
		mcp.WithDescription("Record a vault as opened, registering it if new"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
	), f.handleTouchWorkspace)

	s.AddTool(mcp.NewTool("remove_workspace",
		mcp.WithDescription("Forget a vault's index bookkeeping (does not touch its files)"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
	), f.handleRemoveWorkspace)

	s.AddTool(mcp.NewTool("get_embedding_config",
		mcp.WithDescription("Return a vault's configured embedding provider and model"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
	), f.handleGetEmbeddingConfig)

	s.AddTool(mcp.NewTool("set_embedding_config",
		mcp.WithDescription("Set or clear a vault's embedding provider and model"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
		mcp.WithString("provider", mcp.Description("Embedding provider name")),
		mcp.WithString("model", mcp.Description("Embedding model name; empty clears the configuration")),
	), f.handleSetEmbeddingConfig)

	s.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note inside a vault and index it immediately"),
		mcp.WithString("root", mcp.Description("Absolute path to the vault root"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Vault-relative path for the new note"), mcp.Required()),
		mcp.WithString("body", mcp.Description("Initial note contents; defaults to empty")),
	), f.handleCreateNote)

	return s
}

func (f *Facade) handleIndexWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	force, _ := req.Params.Arguments["force"].(bool)

	summary, err := f.IndexWorkspace(ctx, root, force)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(summary)
}

func (f *Facade) handleIndexNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	path, err := requireString(req, "path")
	if err != nil {
		return errorResult(err), nil
	}

	summary, err := f.IndexNote(ctx, root, path)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(summary)
}

func (f *Facade) handleGetIndexingMeta(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}

	meta, err := f.GetIndexingMeta(root)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(meta)
}

func (f *Facade) handleSearchNotesForQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	query, err := requireString(req, "query")
	if err != nil {
		return errorResult(err), nil
	}
	limit := 0
	if v, ok := req.Params.Arguments["limit"].(float64); ok {
		limit = int(v)
	}

	entries, err := f.SearchNotesForQuery(ctx, root, query, limit)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(entries)
}

func (f *Facade) handleResolveWikiLinkTarget(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	rawTarget, err := requireString(req, "raw_target")
	if err != nil {
		return errorResult(err), nil
	}
	var currentNotePath *string
	if v, ok := req.Params.Arguments["current_note_path"].(string); ok && v != "" {
		currentNotePath = &v
	}

	target, err := f.ResolveWikiLinkTarget(root, rawTarget, currentNotePath)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(target)
}

func (f *Facade) handleGetBacklinks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	path, err := requireString(req, "path")
	if err != nil {
		return errorResult(err), nil
	}

	backlinks, err := f.GetBacklinks(root, path)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(backlinks)
}

func (f *Facade) handleGetGraphViewData(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}

	view, err := f.GetGraphViewData(root)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(view)
}

func (f *Facade) handleListWorkspaces(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaults, err := f.ListWorkspaces()
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(vaults)
}

func (f *Facade) handleTouchWorkspace(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	if err := f.TouchWorkspace(root); err != nil {
		return errorResult(err), nil
	}
	return textResult("ok"), nil
}

func (f *Facade) handleRemoveWorkspace(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	if err := f.RemoveWorkspace(root); err != nil {
		return errorResult(err), nil
	}
	return textResult("ok"), nil
}

func (f *Facade) handleGetEmbeddingConfig(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	provider, model, ok, err := f.GetEmbeddingConfig(root)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
		Set      bool   `json:"set"`
	}{provider, model, ok})
}

func (f *Facade) handleSetEmbeddingConfig(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	provider, _ := req.Params.Arguments["provider"].(string)
	model, _ := req.Params.Arguments["model"].(string)

	if err := f.SetEmbeddingConfig(root, provider, model); err != nil {
		return errorResult(err), nil
	}
	return textResult("ok"), nil
}

func (f *Facade) handleCreateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := requireString(req, "root")
	if err != nil {
		return errorResult(err), nil
	}
	path, err := requireString(req, "path")
	if err != nil {
		return errorResult(err), nil
	}
	body, _ := req.Params.Arguments["body"].(string)

	summary, err := f.CreateNote(ctx, root, path, []byte(body))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(summary)
}

// requireString extracts a required string argument, reporting an
// InvalidInput façade error when missing or of the wrong type.
func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v, ok := req.Params.Arguments[key].(string)
	if !ok || v == "" {
		return "", mditerrors.New(mditerrors.CodeInvalidSearchQuery, fmt.Sprintf("missing required argument %q", key))
	}
	return v, nil
}

// jsonResult marshals v as the tool's single text content block.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(data)}},
	}, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

// errorResult maps a façade error onto an MCP tool error result, preferring
// the stable façade code when available.
func errorResult(err error) *mcp.CallToolResult {
	code := mditerrors.CodeOf(err)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: fmt.Sprintf("%s: %v", code, err)}},
		IsError: true,
	}
}
