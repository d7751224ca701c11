package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"decko/internal/content"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(orig) })
	_ = os.Chdir(tmp)

	for _, key := range []string{"GEMINI_API_KEY", "API_KEY", "GOOGLE_CLOUD_PROJECT", "GROQ_API_KEY", "GCS_BUCKET", "DECKO_CONFIG"} {
		t.Setenv(key, "")
	}
	return tmp
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Gemini.SearchModel != defaultSearchModel {
		t.Errorf("Gemini.SearchModel = %q, want %q", cfg.Gemini.SearchModel, defaultSearchModel)
	}
	if cfg.Gemini.ImageModel != "gemini-3-pro-image-preview" {
		t.Errorf("Gemini.ImageModel = %q", cfg.Gemini.ImageModel)
	}
	if cfg.Gemini.EditModel != "gemini-2.5-flash-image" {
		t.Errorf("Gemini.EditModel = %q", cfg.Gemini.EditModel)
	}
	if cfg.Gemini.Brand != "Decko" {
		t.Errorf("Gemini.Brand = %q, want Decko", cfg.Gemini.Brand)
	}
	if cfg.Server.SessionTTL != defaultSessionTTL {
		t.Errorf("Server.SessionTTL = %v, want %v", cfg.Server.SessionTTL, defaultSessionTTL)
	}

	ic, err := cfg.DefaultImageConfig()
	if err != nil {
		t.Fatalf("DefaultImageConfig() error: %v", err)
	}
	if ic != content.DefaultImageConfig() {
		t.Errorf("DefaultImageConfig() = %+v", ic)
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmp := chdirTemp(t)

	yaml := `
gemini:
  brand: Acme
  search_model: test-model
draft:
  provider: groq
image:
  aspect_ratio: "16:9"
  resolution: 2K
server:
  addr: ":9000"
  session_ttl: 30m
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Gemini.Brand != "Acme" {
		t.Errorf("Gemini.Brand = %q, want Acme", cfg.Gemini.Brand)
	}
	if cfg.Gemini.SearchModel != "test-model" {
		t.Errorf("Gemini.SearchModel = %q, want test-model", cfg.Gemini.SearchModel)
	}
	if cfg.Gemini.DraftModel != defaultDraftModel {
		t.Errorf("Gemini.DraftModel = %q, want default", cfg.Gemini.DraftModel)
	}
	if cfg.Draft.Provider != ProviderGroq {
		t.Errorf("Draft.Provider = %q, want groq", cfg.Draft.Provider)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("Server.SessionTTL = %v, want 30m", cfg.Server.SessionTTL)
	}

	ic, _ := cfg.DefaultImageConfig()
	if ic.AspectRatio != content.AspectLandscape || ic.Resolution != content.ResolutionHigh {
		t.Errorf("DefaultImageConfig() = %+v", ic)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("GROQ_API_KEY", "test-groq")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.GroqAPIKey != "test-groq" {
		t.Errorf("GroqAPIKey = %q, want test-groq", cfg.GroqAPIKey)
	}
	if cfg.GCPProject != "test-project" {
		t.Errorf("GCPProject = %q, want test-project", cfg.GCPProject)
	}

	t.Setenv("GOOGLE_CLOUD_LOCATION", "europe-west4")
	t.Setenv("GCS_BUCKET", "decko-images")
	cfg, _ = Load(context.Background())
	if cfg.GCPLocation != "europe-west4" {
		t.Errorf("GCPLocation = %q, want europe-west4", cfg.GCPLocation)
	}
	if cfg.GCSBucket != "decko-images" {
		t.Errorf("GCSBucket = %q, want decko-images", cfg.GCSBucket)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tmp := chdirTemp(t)

	path := filepath.Join(tmp, "custom.yaml")
	_ = os.WriteFile(path, []byte("gemini:\n  brand: Custom\n"), 0644)
	t.Setenv("DECKO_CONFIG", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Gemini.Brand != "Custom" {
		t.Errorf("Gemini.Brand = %q, want Custom", cfg.Gemini.Brand)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "badBackend", yaml: "gemini:\n  backend: openai\n"},
		{name: "vertexWithoutProject", yaml: "gemini:\n  backend: vertex\n"},
		{name: "badProvider", yaml: "draft:\n  provider: claude\n"},
		{name: "badKeyStore", yaml: "keys:\n  store: vault\n"},
		{name: "gcsWithoutBucket", yaml: "storage:\n  backend: gcs\n"},
		{name: "badAspectRatio", yaml: "image:\n  aspect_ratio: \"5:4\"\n"},
		{name: "badResolution", yaml: "image:\n  resolution: 8K\n"},
		{name: "malformedYAML", yaml: "gemini: [oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := chdirTemp(t)
			_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(tt.yaml), 0644)

			if _, err := Load(context.Background()); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}
