package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"

	"decko/internal/content"
	"decko/internal/studio"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
)

func runWithSpinner(ctx context.Context, title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Context(ctx).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}

func printSearchResult(res *content.SearchResult) {
	fmt.Println(titleStyle.Render("Event details"))
	fmt.Println(panelStyle.Render(res.Text))
	if len(res.SourceLinks) == 0 {
		return
	}

	fmt.Println(infoStyle.Render("\nSources:"))
	for _, link := range res.SourceLinks {
		fmt.Printf("  • %s %s\n", link.Title, mutedStyle.Render(link.URI))
	}
	fmt.Println()
}

func printDraft(d *content.SocialDraft) {
	var b strings.Builder
	b.WriteString(d.Caption)
	if len(d.Hashtags) > 0 {
		b.WriteString("\n\n")
		b.WriteString(infoStyle.Render(content.FormatHashtags(d.Hashtags)))
	}

	fmt.Println(titleStyle.Render("Draft post"))
	fmt.Println(panelStyle.Render(b.String()))
	fmt.Println(mutedStyle.Render("Image prompt: " + d.ImagePrompt))
	fmt.Println()
}

// userFacing turns studio errors into the message to print.
func userFacing(err error) string {
	var ue *studio.UserError
	switch {
	case errors.As(err, &ue):
		return ue.Message
	case errors.Is(err, studio.ErrReauthRequired):
		return "API key rejected. Select a key from a paid Google Cloud project (decko key select)."
	}
	return err.Error()
}
