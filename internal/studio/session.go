package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"decko/internal/content"
	"decko/internal/keys"
	"decko/internal/llm"
)

const (
	msgSearchFailed    = "Search failed. Please check your API limits."
	msgDraftFailed     = "Could not generate a valid draft."
	msgGenerateFailed  = "Image generation failed."
	msgEditFailed      = "Edit failed."
	msgKeyCancelled    = "Key selection cancelled."
	msgKeyInvalid      = "Invalid API Key or Project. Please select a valid paid project."
	msgKeySelectFailed = "Failed to select key. Please try again."
)

var ErrReauthRequired = errors.New("API key rejected, select a key from a paid project")

// UserError carries a message safe to show the user. The cause is logged, not shown.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

func userError(msg string, err error) error {
	return &UserError{Message: msg, Err: err}
}

// KeyManager is the part of keys.Manager a session drives.
type KeyManager interface {
	HasSelectedKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
	Invalidate()
}

// State is everything a view renders. Stored results are replaced, never
// mutated, so a copy can share them.
type State struct {
	HasKey bool               `json:"hasKey"`
	View   content.View       `json:"view"`
	Mode   content.StudioMode `json:"mode"`

	Query        string                `json:"query"`
	SearchResult *content.SearchResult `json:"searchResult,omitempty"`
	Draft        *content.SocialDraft  `json:"draft,omitempty"`

	ImagePrompt    string              `json:"imagePrompt"`
	ImageConfig    content.ImageConfig `json:"imageConfig"`
	GeneratedImage *content.Image      `json:"-"`

	EditSource      *content.Image `json:"-"`
	EditInstruction string         `json:"editInstruction"`
	EditedImage     *content.Image `json:"-"`

	Searching  bool `json:"searching"`
	Drafting   bool `json:"drafting"`
	Generating bool `json:"generating"`
	Editing    bool `json:"editing"`
}

// Session holds one user's studio state. Actions run one at a time; Snapshot
// never waits for an action to finish.
type Session struct {
	op sync.Mutex

	mu    sync.Mutex
	state State

	models llm.Studio
	keys   KeyManager
}

func NewSession(models llm.Studio, km KeyManager, imageCfg content.ImageConfig) *Session {
	if imageCfg.Validate() != nil {
		imageCfg = content.DefaultImageConfig()
	}
	return &Session{
		models: models,
		keys:   km,
		state: State{
			View:        content.ViewDiscover,
			Mode:        content.ModeGenerate,
			ImageConfig: imageCfg,
		},
	}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *Session) Init(ctx context.Context) {
	s.op.Lock()
	defer s.op.Unlock()

	if s.keys == nil {
		s.update(func(st *State) { st.HasKey = true })
		return
	}

	has, err := s.keys.HasSelectedKey(ctx)
	if err != nil {
		slog.Warn("Failed to check API key", "error", err)
	}
	s.update(func(st *State) { st.HasKey = has })
}

func (s *Session) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.op.Lock()
	defer s.op.Unlock()

	s.update(func(st *State) {
		st.Query = query
		st.Searching = true
		st.SearchResult = nil
		st.Draft = nil
	})

	result, err := s.models.SearchEvents(ctx, query)
	s.update(func(st *State) {
		st.Searching = false
		if err == nil {
			st.SearchResult = result
		}
	})
	if err != nil {
		slog.Error("Search failed", "query", query, "error", err)
		return userError(msgSearchFailed, err)
	}

	slog.Debug("Search completed", "links", len(result.SourceLinks))
	return nil
}

func (s *Session) DraftPost(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	result := s.Snapshot().SearchResult
	if result == nil {
		return nil
	}

	s.update(func(st *State) { st.Drafting = true })
	draft, err := s.models.DraftPost(ctx, result.Text)
	s.update(func(st *State) {
		st.Drafting = false
		if err == nil {
			st.Draft = draft
		}
	})
	if err != nil {
		slog.Error("Draft failed", "error", err)
		return userError(msgDraftFailed, err)
	}
	return nil
}

// SendToStudio carries the draft's image prompt into the generator.
func (s *Session) SendToStudio() {
	s.update(func(st *State) {
		if st.Draft == nil {
			return
		}
		st.ImagePrompt = st.Draft.ImagePrompt
		st.View = content.ViewStudio
		st.Mode = content.ModeGenerate
	})
}

func (s *Session) SetView(v content.View) {
	s.update(func(st *State) { st.View = v })
}

func (s *Session) SetMode(m content.StudioMode) {
	s.update(func(st *State) { st.Mode = m })
}

func (s *Session) SetImagePrompt(prompt string) {
	s.update(func(st *State) { st.ImagePrompt = prompt })
}

func (s *Session) SetImageConfig(cfg content.ImageConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid image config: %w", err)
	}
	s.update(func(st *State) { st.ImageConfig = cfg })
	return nil
}

func (s *Session) GenerateImage(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	snap := s.Snapshot()
	prompt := strings.TrimSpace(snap.ImagePrompt)
	if prompt == "" {
		return nil
	}

	s.update(func(st *State) {
		st.Generating = true
		st.GeneratedImage = nil
	})
	img, err := s.models.GenerateImage(ctx, prompt, snap.ImageConfig)
	s.update(func(st *State) {
		st.Generating = false
		if err == nil {
			st.GeneratedImage = img
		}
	})
	if err == nil {
		return nil
	}

	if llm.IsInvalidKey(err) {
		slog.Warn("API key rejected during image generation", "error", err)
		s.update(func(st *State) { st.HasKey = false })
		if s.keys != nil {
			s.keys.Invalidate()
		}
		return ErrReauthRequired
	}

	slog.Error("Image generation failed", "error", err)
	return userError(msgGenerateFailed, err)
}

func (s *Session) LoadEditImage(img *content.Image) {
	s.update(func(st *State) {
		st.EditSource = img
		st.EditedImage = nil
	})
}

func (s *Session) EditImage(ctx context.Context, instruction string) error {
	s.op.Lock()
	defer s.op.Unlock()

	source := s.Snapshot().EditSource
	if source == nil || len(source.Data) == 0 || strings.TrimSpace(instruction) == "" {
		return nil
	}

	s.update(func(st *State) {
		st.EditInstruction = instruction
		st.Editing = true
	})
	img, err := s.models.EditImage(ctx, source, instruction)
	s.update(func(st *State) {
		st.Editing = false
		if err == nil {
			st.EditedImage = img
		}
	})
	if err != nil {
		slog.Error("Edit failed", "error", err)
		return userError(msgEditFailed, err)
	}
	return nil
}

func (s *Session) SelectKey(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	if s.keys == nil {
		s.update(func(st *State) { st.HasKey = true })
		return nil
	}

	err := s.keys.OpenSelectKey(ctx)
	switch {
	case err == nil, errors.Is(err, keys.ErrCancelled):
	case llm.IsInvalidKey(err):
		slog.Error("Key selection failed", "error", err)
		return userError(msgKeyInvalid, err)
	default:
		slog.Error("Key selection failed", "error", err)
		return userError(msgKeySelectFailed, err)
	}

	has, err := s.keys.HasSelectedKey(ctx)
	if err != nil {
		slog.Error("Key selection failed", "error", err)
		return userError(msgKeySelectFailed, err)
	}
	if !has {
		return userError(msgKeyCancelled, keys.ErrCancelled)
	}

	s.update(func(st *State) { st.HasKey = true })
	return nil
}
