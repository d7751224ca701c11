package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"decko/internal/content"
	"decko/internal/keys"
	"decko/internal/llm"
	"decko/internal/llm/gemini"
	"decko/internal/llm/groq"
	"decko/internal/storage"
	"decko/internal/studio"
	"decko/pkg/config"
	"decko/pkg/prompts"
)

// Services wires configuration into the clients every command shares.
type Services struct {
	Config      *config.Config
	Prompts     *prompts.Prompts
	Keys        *keys.Manager
	Loader      *content.Loader
	ImageConfig content.ImageConfig

	keyStore keys.Store
	drafter  llm.DraftComposer

	imagesOnce sync.Once
	images     storage.ImageStore
	imagesErr  error

	closers []func() error
}

func Build(ctx context.Context, cfg *config.Config, prompter keys.Prompter) (*Services, error) {
	p, err := prompts.Load(cfg.Prompts.Path)
	if err != nil {
		return nil, err
	}

	imageCfg, err := cfg.DefaultImageConfig()
	if err != nil {
		return nil, fmt.Errorf("image defaults: %w", err)
	}

	s := &Services{
		Config:      cfg,
		Prompts:     p,
		Loader:      content.NewLoader(nil),
		ImageConfig: imageCfg,
	}

	store, err := s.buildKeyStore(ctx)
	if err != nil {
		return nil, err
	}
	s.keyStore = store
	s.Keys = keys.NewManager(store, prompter)

	if cfg.Draft.Provider == config.ProviderGroq {
		drafter, err := groq.NewClient(cfg.GroqAPIKey, cfg.Draft.GroqModel, cfg.Gemini.Brand, p)
		if err != nil {
			return nil, fmt.Errorf("groq drafter: %w", err)
		}
		s.drafter = drafter
	}

	return s, nil
}

func (s *Services) buildKeyStore(ctx context.Context) (keys.Store, error) {
	if s.Config.Gemini.Backend == config.BackendVertex {
		return keys.NewADCStore(), nil
	}

	if s.Config.Keys.Store == config.KeyStoreSecretManager {
		store, err := keys.NewSecretStore(ctx, s.Config.GCPProject, s.Config.Keys.SecretName)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		return store, nil
	}

	return keys.NewEnvStore(s.Config.Keys.EnvFile), nil
}

// Models returns the model operations authenticated through ks.
func (s *Services) Models(ks llm.KeySource) llm.Studio {
	cfg := s.Config
	client := gemini.NewClient(ks, s.Prompts, gemini.Options{
		Backend:     cfg.Gemini.Backend,
		Project:     cfg.GCPProject,
		Location:    cfg.GCPLocation,
		BaseURL:     cfg.Gemini.BaseURL,
		SearchModel: cfg.Gemini.SearchModel,
		DraftModel:  cfg.Gemini.DraftModel,
		ImageModel:  cfg.Gemini.ImageModel,
		EditModel:   cfg.Gemini.EditModel,
		Brand:       cfg.Gemini.Brand,
	})
	return llm.WithDrafter(client, s.drafter)
}

// NewSession returns a studio session using the shared key manager.
func (s *Services) NewSession() *studio.Session {
	return studio.NewSession(s.Models(s.Keys), s.Keys, s.ImageConfig)
}

// SessionFactory builds sessions whose selected key stays private to the
// session. Until one is selected the configured key store answers.
func (s *Services) SessionFactory() func() *studio.Session {
	return func() *studio.Session {
		km := keys.NewManager(keys.NewMemoryStore(s.keyStore), keys.ContextPrompter)
		return studio.NewSession(s.Models(km), km, s.ImageConfig)
	}
}

// Images opens the configured image store on first use.
func (s *Services) Images(ctx context.Context) (storage.ImageStore, error) {
	s.imagesOnce.Do(func() {
		if s.Config.Storage.Backend == config.StorageGCS {
			gcs, err := storage.NewGCSStorage(ctx, s.Config.GCSBucket, s.Config.Storage.Prefix)
			if err != nil {
				s.imagesErr = err
				return
			}
			s.closers = append(s.closers, gcs.Close)
			s.images = gcs
			return
		}
		s.images = storage.NewLocalStorage(s.Config.Image.OutputDir)
	})
	return s.images, s.imagesErr
}

func (s *Services) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		slog.Warn("Failed to close clients", "errors", len(errs))
	}
	return errors.Join(errs...)
}
