package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchDraft bool
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Research an event with grounded web search",
	Long: `Search the web for an event or topic and summarize dates, locations and
key themes, with the sources the summary is grounded on.`,
	Example: `  decko search "design conferences in Lisbon this autumn"
  decko search --draft "Berlin jazz week"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVarP(&searchDraft, "draft", "d", false, "Also draft a social post from the result")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("query is empty")
	}

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	sess := svc.NewSession()
	err = runWithSpinner(ctx, "Searching", func() error {
		return sess.Search(ctx, query)
	})
	if err != nil {
		return errors.New(userFacing(err))
	}

	if searchDraft {
		err = runWithSpinner(ctx, "Drafting post", func() error {
			return sess.DraftPost(ctx)
		})
		if err != nil {
			return errors.New(userFacing(err))
		}
	}

	st := sess.Snapshot()
	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"searchResult": st.SearchResult,
			"draft":        st.Draft,
		})
	}

	printSearchResult(st.SearchResult)
	if st.Draft != nil {
		printDraft(st.Draft)
	} else {
		fmt.Println(mutedStyle.Render("Run with --draft to turn this into a post."))
	}
	return nil
}
