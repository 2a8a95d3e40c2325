package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/accord/internal/adapters/driving/mcp"
	"github.com/custodia-labs/accord/internal/logger"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search and
ask questions about your agreements.

By default the server talks JSON-RPC over stdio. Use --http to serve the
streamable HTTP transport instead.

Examples:
  # Stdio mode (for desktop assistants)
  accord mcp

  # HTTP mode (for MCP Inspector, remote access)
  accord mcp --http localhost:8080

Assistant configuration:
  {
    "mcpServers": {
      "accord": {
        "command": "/path/to/accord",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	rt, err := runtimeOrErr()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	search, err := rt.Search(ctx, true)
	if err != nil {
		return err
	}

	ports := &mcp.Ports{Search: search}
	if docs, err := rt.Documents(); err != nil {
		logger.Warn("mcp: documents resource disabled: %v", err)
	} else {
		ports.Documents = docs
	}

	server, err := mcp.NewServer(ports, version)
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(ctx, mcpHTTPAddr)
	}
	return server.Run(ctx)
}
