package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arborlabs/arbor"
	"github.com/arborlabs/arbor/internal/logging"
	"github.com/arborlabs/arbor/pkg/adapters/file"
	mcpAdapter "github.com/arborlabs/arbor/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the arbor engine as an MCP Server.
This allows AI agents (like Claude Desktop) to play and validate dialog trees as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		graphsDir, _ := cmd.Flags().GetString("graphs")
		if !cmd.Flags().Changed("graphs") && len(args) > 0 {
			graphsDir = args[0]
		}

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
		logger := logging.New(logging.ParseLevel("debug"))

		service := arbor.New(file.New(graphsDir), arbor.WithLogger(logger))
		srv := mcpAdapter.NewServer(service, logger)

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			logger.Info("starting arbor MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("starting arbor MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					logger.Error("MCP server execution failed", "err", err)
					os.Exit(1)
				}
			}
			logger.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("graphs", ".arbor/graphs", "Directory containing dialog documents")
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
