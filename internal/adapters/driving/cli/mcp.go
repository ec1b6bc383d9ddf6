package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/querra-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes two tools: "ask" answers questions from the indexed
documents, "index_documents" ingests local files. By default it
communicates over stdio using JSON-RPC and can be used with Claude
Desktop and other MCP-compatible AI assistants.

Use --dir to index a directory before serving, and --port to start an
HTTP server instead of stdio.

Examples:
  # Stdio mode (default, for Claude Desktop)
  querra mcp serve --dir ./docs

  # HTTP mode (for MCP Inspector, remote access)
  querra mcp serve --dir ./docs --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "querra": {
        "command": "/path/to/querra",
        "args": ["mcp", "serve", "--dir", "/path/to/docs"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringP("dir", "d", "", "index every supported file under this directory before serving")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return fmt.Errorf("getting dir flag: %w", err)
	}

	if dir != "" {
		files, err := gatherFiles(nil, dir)
		if err != nil {
			return err
		}
		summary, err := pipelineService.RunIndexing(cmd.Context(), files, 0, 0)
		if err != nil {
			return fmt.Errorf("initial indexing failed: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", summary.Message)
	}

	server, err := mcp.NewServer(&mcp.Ports{Pipeline: pipelineService})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
