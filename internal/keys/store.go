package keys

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

const (
	EnvKey       = "GEMINI_API_KEY"
	legacyEnvKey = "API_KEY"
	envFileMode  = 0600
)

// EnvStore keeps the key in the process environment and a dotenv file.
type EnvStore struct {
	path string
}

func NewEnvStore(path string) *EnvStore {
	return &EnvStore{path: path}
}

func (s *EnvStore) Load(ctx context.Context) (string, error) {
	for _, name := range []string{EnvKey, legacyEnvKey} {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}

	if s.path == "" {
		return "", nil
	}
	env, err := godotenv.Read(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.path, err)
	}
	if v := env[EnvKey]; v != "" {
		return v, nil
	}
	return env[legacyEnvKey], nil
}

func (s *EnvStore) Save(ctx context.Context, key string) error {
	if err := os.Setenv(EnvKey, key); err != nil {
		return fmt.Errorf("set %s: %w", EnvKey, err)
	}
	if s.path == "" {
		return nil
	}

	env, err := godotenv.Read(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	if env == nil {
		env = make(map[string]string)
	}
	env[EnvKey] = key
	delete(env, legacyEnvKey)

	if err := godotenv.Write(env, s.path); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return os.Chmod(s.path, envFileMode)
}

// MemoryStore holds a key for one session only.
type MemoryStore struct {
	mu       sync.RWMutex
	key      string
	fallback Store
}

// NewMemoryStore returns a store that answers from fallback until a key is saved.
// fallback may be nil.
func NewMemoryStore(fallback Store) *MemoryStore {
	return &MemoryStore{fallback: fallback}
}

func (s *MemoryStore) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()

	if key != "" || s.fallback == nil {
		return key, nil
	}
	return s.fallback.Load(ctx)
}

func (s *MemoryStore) Save(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	return nil
}
