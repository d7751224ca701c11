package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
)

var hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

// TerminalPrompter opens the key page in a browser and reads the key from a
// masked terminal input.
type TerminalPrompter struct {
	KeyURL      string
	OpenBrowser bool
}

func (p TerminalPrompter) PromptKey(ctx context.Context) (string, error) {
	if p.KeyURL != "" {
		fmt.Println(hintStyle.Render("Create or copy a Gemini API key from a paid Google Cloud project:\n" + p.KeyURL))
		if p.OpenBrowser {
			_ = browser.OpenURL(p.KeyURL)
		}
	}

	var key string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API key").
				Description("Requires a paid Google Cloud project for image generation and search grounding.").
				EchoMode(huh.EchoModePassword).
				Value(&key),
		),
	)
	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", ErrCancelled
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// StaticPrompter returns a key supplied out of band, such as in a request body.
func StaticPrompter(key string) Prompter {
	return PrompterFunc(func(context.Context) (string, error) {
		return key, nil
	})
}

type promptedKey struct{}

// WithPromptedKey attaches a key received from a request so ContextPrompter
// can hand it to the Manager.
func WithPromptedKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, promptedKey{}, key)
}

// ContextPrompter answers with the key attached by WithPromptedKey.
var ContextPrompter = PrompterFunc(func(ctx context.Context) (string, error) {
	key, _ := ctx.Value(promptedKey{}).(string)
	return key, nil
})
