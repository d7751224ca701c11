package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var draftJSON bool

var draftCmd = &cobra.Command{
	Use:   "draft [event details]",
	Short: "Draft a social post from event details",
	Long: `Draft a caption, hashtags and an image prompt for your brand from event
details given as arguments or on stdin.`,
	Example: `  decko draft "Open-air cinema, Aug 12, Riverside Park"
  decko search --json "..." | jq -r .searchResult.text | decko draft`,
	RunE: runDraft,
}

func init() {
	draftCmd.Flags().BoolVar(&draftJSON, "json", false, "Print the draft as JSON")
	rootCmd.AddCommand(draftCmd)
}

func runDraft(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("provide event details as arguments or on stdin")
	}

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	models := svc.Models(svc.Keys)
	draft, err := models.DraftPost(ctx, text)
	if err != nil {
		return fmt.Errorf("draft post: %w", err)
	}

	if draftJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(draft)
	}
	printDraft(draft)
	return nil
}
