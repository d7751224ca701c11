package llm

import (
	"context"
	"errors"

	"decko/internal/content"
)

var (
	ErrMissingKey   = errors.New("API key not found")
	ErrEmptyQuery   = errors.New("query is empty")
	ErrInvalidDraft = errors.New("could not generate a valid draft")
	ErrNoImage      = errors.New("no image data returned")
	ErrInvalidKey   = errors.New("requested entity was not found")
)

type EventSearcher interface {
	SearchEvents(ctx context.Context, query string) (*content.SearchResult, error)
}

type DraftComposer interface {
	DraftPost(ctx context.Context, eventText string) (*content.SocialDraft, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, cfg content.ImageConfig) (*content.Image, error)
}

type ImageEditor interface {
	EditImage(ctx context.Context, source *content.Image, instruction string) (*content.Image, error)
}

// Studio bundles every operation a presentation surface sequences.
type Studio interface {
	EventSearcher
	DraftComposer
	ImageGenerator
	ImageEditor
}

// KeySource hands out the credential used for each model call.
type KeySource interface {
	Key(ctx context.Context) (string, error)
}

type studioWithDrafter struct {
	Studio
	drafter DraftComposer
}

func (s studioWithDrafter) DraftPost(ctx context.Context, eventText string) (*content.SocialDraft, error) {
	return s.drafter.DraftPost(ctx, eventText)
}

// WithDrafter routes drafting to d and everything else to s.
func WithDrafter(s Studio, d DraftComposer) Studio {
	if d == nil {
		return s
	}
	return studioWithDrafter{Studio: s, drafter: d}
}
