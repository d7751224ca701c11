package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"decko/internal/content"
)

type rawDraft struct {
	Caption     *string   `json:"caption"`
	Hashtags    *[]string `json:"hashtags"`
	ImagePrompt *string   `json:"imagePrompt"`
}

// ParseDraft decodes a model's JSON draft. Empty text is treated as "{}",
// so it fails on the missing fields rather than on syntax.
func ParseDraft(text string) (*content.SocialDraft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "{}"
	}
	text = stripCodeFence(text)

	var raw rawDraft
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}

	switch {
	case raw.Caption == nil || strings.TrimSpace(*raw.Caption) == "":
		return nil, fmt.Errorf("%w: missing caption", ErrInvalidDraft)
	case raw.Hashtags == nil:
		return nil, fmt.Errorf("%w: missing hashtags", ErrInvalidDraft)
	case raw.ImagePrompt == nil || strings.TrimSpace(*raw.ImagePrompt) == "":
		return nil, fmt.Errorf("%w: missing imagePrompt", ErrInvalidDraft)
	}

	return &content.SocialDraft{
		Caption:     strings.TrimSpace(*raw.Caption),
		Hashtags:    content.CleanHashtags(*raw.Hashtags),
		ImagePrompt: strings.TrimSpace(*raw.ImagePrompt),
	}, nil
}

// stripCodeFence unwraps ```json ... ``` blocks some models emit in JSON mode.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
