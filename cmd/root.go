package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"decko/internal/app"
	"decko/internal/keys"
	"decko/pkg/config"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "decko",
	Short: "Research events and create social posts and visuals",
	Long: `Decko researches events with grounded web search, drafts social media posts
for your brand, and generates or edits matching images with Gemini.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default $DECKO_CONFIG or ./config.yaml)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		setupLogger(os.Stdout)
		if configPath != "" {
			return os.Setenv("DECKO_CONFIG", configPath)
		}
		return nil
	}
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func setupLogger(w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func loadServices(ctx context.Context) (*app.Services, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	prompter := keys.TerminalPrompter{KeyURL: cfg.Keys.KeyURL, OpenBrowser: true}
	return app.Build(ctx, cfg, prompter)
}
