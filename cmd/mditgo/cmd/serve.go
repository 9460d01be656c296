package cmd

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/mditgo/mditgo/internal/facade"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Starts mditgo's MCP server, exposing index_workspace, index_note,
search_notes_for_query, and the rest of the command surface as MCP tools
over stdio for clients such as Claude Code.

MCP's stdio transport reserves stdout exclusively for JSON-RPC traffic;
all logging from this command goes to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mcpServer := facade.NewMCPServer(app.facade)
			if err := server.ServeStdio(mcpServer); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
	return cmd
}
