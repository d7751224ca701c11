package keys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

var ErrCancelled = errors.New("key selection cancelled")

// Store persists the selected API key.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, key string) error
}

// Prompter asks the user for a key.
type Prompter interface {
	PromptKey(ctx context.Context) (string, error)
}

type PrompterFunc func(ctx context.Context) (string, error)

func (f PrompterFunc) PromptKey(ctx context.Context) (string, error) { return f(ctx) }

// Manager tracks the selected key. A key reported as invalid stays rejected
// until a different key is selected, so the store cannot hand it back.
type Manager struct {
	mu       sync.Mutex
	store    Store
	prompter Prompter
	cached   string
	rejected string
}

func NewManager(store Store, prompter Prompter) *Manager {
	return &Manager{store: store, prompter: prompter}
}

func (m *Manager) Key(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx)
}

func (m *Manager) loadLocked(ctx context.Context) (string, error) {
	if m.cached != "" {
		return m.cached, nil
	}

	key, err := m.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" || key == m.rejected {
		return "", nil
	}

	m.cached = key
	return key, nil
}

func (m *Manager) HasSelectedKey(ctx context.Context) (bool, error) {
	key, err := m.Key(ctx)
	if err != nil {
		return false, err
	}
	return key != "", nil
}

// OpenSelectKey prompts for a key and saves it. A blank answer is ErrCancelled.
func (m *Manager) OpenSelectKey(ctx context.Context) error {
	if m.prompter == nil {
		return fmt.Errorf("no key prompter configured")
	}

	key, err := m.prompter.PromptKey(ctx)
	if err != nil {
		return err
	}
	return m.SelectKey(ctx, key)
}

func (m *Manager) SelectKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrCancelled
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, key); err != nil {
		return fmt.Errorf("save key: %w", err)
	}
	m.cached = key
	if key != m.rejected {
		m.rejected = ""
	}
	slog.Debug("API key selected")
	return nil
}

// Invalidate drops the current key after the model API rejected it.
// Application Default Credentials are re-checked on the next load instead.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != "" && m.cached != ADCMarker {
		m.rejected = m.cached
	}
	m.cached = ""
	slog.Info("API key invalidated, re-authentication required")
}
