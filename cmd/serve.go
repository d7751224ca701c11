package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"decko/internal/server"
	"decko/internal/studio"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the studio JSON API",
	Long: `Serve the studio over HTTP. Every browser gets its own session, including
its own selected API key.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	cfg := svc.Config

	if cfg.Server.LogFile != "" {
		logFile := &lumberjack.Logger{
			Filename:   cfg.Server.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		defer logFile.Close()
		setupLogger(io.MultiWriter(os.Stdout, logFile))
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	sessions := studio.NewStore(cfg.Server.SessionTTL, svc.SessionFactory())
	srv := server.New(sessions, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		Burst:          cfg.Server.Burst,
		SessionTTL:     cfg.Server.SessionTTL,
	})

	slog.Info("Starting server", "addr", addr, "backend", cfg.Gemini.Backend, "rate_limit", cfg.Server.RateLimit)
	return srv.Run(ctx, addr)
}
