package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docintel/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docintel/internal/logger"
)

var (
	servePort        int
	serveNoScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server and background scheduler",
	Long: `Start the Model Context Protocol server for AI assistant integration,
together with the scheduler that processes pending documents.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead. The MCP endpoint is served at
/mcp and Prometheus metrics at /metrics.

Examples:
  # Stdio mode (default, for Claude Desktop)
  docintel serve

  # HTTP mode (for MCP Inspector, remote access, metrics scraping)
  docintel serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docintel": {
        "command": "/path/to/docintel",
        "args": ["serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (0 = use stdio)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "do not run scheduled tasks")
	rootCmd.AddCommand(serveCmd)
}

func newMCPServer() (*mcp.Server, error) {
	if searchService == nil {
		return nil, errors.New("search service not configured")
	}
	return mcp.NewServer(&mcp.Ports{
		Search:       searchService,
		VectorSearch: vectorSearchService,
		Document:     documentService,
		Ingest:       ingestService,
		Processing:   processingService,
		Dispatcher:   dispatcher,
		Embeddings:   embeddingIndexer,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := newMCPServer()
	if err != nil {
		return err
	}

	serveCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(serveCtx)

	if scheduler != nil && !serveNoScheduler {
		g.Go(func() error {
			return scheduler.Start(ctx)
		})
	}

	if servePort > 0 {
		addr := fmt.Sprintf(":%d", servePort)
		extra := map[string]http.Handler{}
		if metricsHandler != nil {
			extra["/metrics"] = metricsHandler
		}
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s/mcp\n", addr)
		g.Go(func() error {
			defer cancel()
			return server.RunHTTP(ctx, addr, extra)
		})
	} else {
		logger.Debug("MCP server running over stdio")
		g.Go(func() error {
			defer cancel()
			return server.Run(ctx)
		})
	}

	// The scheduler stops when the server returns.
	err = g.Wait()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
