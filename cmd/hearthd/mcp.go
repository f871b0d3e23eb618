package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearthd/internal/logging"
	mcpAdapter "github.com/hearthd/hearthd/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the hearthd engine as an MCP server so AI agents can drive
configuration wizards and inspect entries as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		// Stdout carries JSON-RPC in stdio mode; logs go to stderr.
		logger := logging.New(logging.ParseLevel(cfg.LogLevel))

		hub := newHub(cfg, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := hub.Restore(ctx); err != nil {
			logger.Error("Failed to restore entries", "err", err)
			os.Exit(1)
		}
		hub.Start(ctx)

		srv := mcpAdapter.NewServer(
			hub.ConfigFlows, hub.OptionsFlows, hub.Entries, hub.Handlers,
			mcpAdapter.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			if err := srv.ServeSSE(ctx, addr); err != nil && err != http.ErrServerClosed {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
			logger.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8124", "Listen address (only for SSE)")
}
