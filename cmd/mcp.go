package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"decko/internal/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server",
	Long: `Expose search_events, draft_post, generate_image and edit_image as MCP tools
over stdio, or over streamable HTTP with --http.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol
		setupLogger(os.Stderr)
		if configPath != "" {
			return os.Setenv("DECKO_CONFIG", configPath)
		}
		return nil
	},
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	images, err := svc.Images(ctx)
	if err != nil {
		slog.Warn("Image storage unavailable, save disabled", "error", err)
		images = nil
	}

	server, err := mcp.NewServer(mcp.Deps{
		Models:      svc.Models(svc.Keys),
		Loader:      svc.Loader,
		Images:      images,
		ImageConfig: svc.ImageConfig,
	})
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		slog.Info("Serving MCP over HTTP", "addr", mcpHTTPAddr)
		return server.RunHTTP(ctx, mcpHTTPAddr)
	}
	return server.Run(ctx)
}
