package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"decko/internal/content"
)

const (
	defaultConfigPath     = "config.yaml"
	defaultEnvFile        = ".env"
	defaultBackend        = BackendGemini
	defaultLocation       = "global"
	defaultSearchModel    = "gemini-2.5-flash"
	defaultDraftModel     = "gemini-2.5-flash"
	defaultImageModel     = "gemini-3-pro-image-preview"
	defaultEditModel      = "gemini-2.5-flash-image"
	defaultBrand          = "Decko"
	defaultDraftProvider  = ProviderGemini
	defaultGroqModel      = "llama-3.3-70b-versatile"
	defaultOutputDir      = "./output"
	defaultKeyStore       = KeyStoreEnv
	defaultSecretName     = "decko-gemini-api-key"
	defaultKeyURL         = "https://aistudio.google.com/app/apikey"
	defaultStorageBackend = StorageLocal
	defaultStoragePrefix  = "images"
	defaultServerAddr     = ":8080"
	defaultRateLimit      = 2.0
	defaultBurst          = 5
	defaultSessionTTL     = 2 * time.Hour
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"

	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	KeyStoreEnv           = "env"
	KeyStoreSecretManager = "secretmanager"

	StorageLocal = "local"
	StorageGCS   = "gcs"
)

type Config struct {
	GCPProject  string
	GCPLocation string
	GroqAPIKey  string
	GCSBucket   string

	Gemini  GeminiConfig  `yaml:"gemini"`
	Draft   DraftConfig   `yaml:"draft"`
	Image   ImageConfig   `yaml:"image"`
	Keys    KeysConfig    `yaml:"keys"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Prompts PromptsConfig `yaml:"prompts"`
}

type GeminiConfig struct {
	Backend     string `yaml:"backend"` // "gemini" or "vertex"
	BaseURL     string `yaml:"base_url"`
	SearchModel string `yaml:"search_model"`
	DraftModel  string `yaml:"draft_model"`
	ImageModel  string `yaml:"image_model"`
	EditModel   string `yaml:"edit_model"`
	Brand       string `yaml:"brand"`
}

type DraftConfig struct {
	Provider  string `yaml:"provider"` // "gemini" or "groq"
	GroqModel string `yaml:"groq_model"`
}

type ImageConfig struct {
	AspectRatio string `yaml:"aspect_ratio"`
	Resolution  string `yaml:"resolution"`
	OutputDir   string `yaml:"output_dir"`
}

type KeysConfig struct {
	Store      string `yaml:"store"` // "env" or "secretmanager"
	SecretName string `yaml:"secret_name"`
	EnvFile    string `yaml:"env_file"`
	KeyURL     string `yaml:"key_url"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"` // "local" or "gcs"
	Prefix  string `yaml:"prefix"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RateLimit      float64       `yaml:"rate_limit"`
	Burst          int           `yaml:"burst"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	LogFile        string        `yaml:"log_file"`
}

type PromptsConfig struct {
	Path string `yaml:"path"`
}

// Load reads .env, then config.yaml (or $DECKO_CONFIG), then fills defaults.
// A missing config file is not an error.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GCPProject:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCPLocation: getEnvOrDefault("GOOGLE_CLOUD_LOCATION", defaultLocation),
		GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
		GCSBucket:   os.Getenv("GCS_BUCKET"),
	}

	path := getEnvOrDefault("DECKO_CONFIG", defaultConfigPath)
	if err := loadYAMLConfig(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAMLConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Debug("No config file found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Gemini.Backend {
	case BackendGemini:
	case BackendVertex:
		if c.GCPProject == "" {
			return fmt.Errorf("vertex backend requires GOOGLE_CLOUD_PROJECT")
		}
	default:
		return fmt.Errorf("unknown gemini backend %q", c.Gemini.Backend)
	}

	switch c.Draft.Provider {
	case ProviderGemini, ProviderGroq:
	default:
		return fmt.Errorf("unknown draft provider %q", c.Draft.Provider)
	}

	switch c.Keys.Store {
	case KeyStoreEnv, KeyStoreSecretManager:
	default:
		return fmt.Errorf("unknown key store %q", c.Keys.Store)
	}

	switch c.Storage.Backend {
	case StorageLocal:
	case StorageGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("gcs storage requires GCS_BUCKET")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if _, err := c.DefaultImageConfig(); err != nil {
		return err
	}
	return nil
}

// DefaultImageConfig is the starting aspect ratio and resolution for new sessions.
func (c *Config) DefaultImageConfig() (content.ImageConfig, error) {
	ar, err := content.ParseAspectRatio(c.Image.AspectRatio)
	if err != nil {
		return content.ImageConfig{}, err
	}
	res, err := content.ParseResolution(c.Image.Resolution)
	if err != nil {
		return content.ImageConfig{}, err
	}
	return content.ImageConfig{AspectRatio: ar, Resolution: res}, nil
}

func applyDefaults(cfg *Config) {
	applyGeminiDefaults(cfg)
	applyDraftDefaults(cfg)
	applyImageDefaults(cfg)
	applyKeysDefaults(cfg)
	applyStorageDefaults(cfg)
	applyServerDefaults(cfg)
}

func applyGeminiDefaults(cfg *Config) {
	if cfg.Gemini.Backend == "" {
		cfg.Gemini.Backend = defaultBackend
	}
	if cfg.Gemini.SearchModel == "" {
		cfg.Gemini.SearchModel = defaultSearchModel
	}
	if cfg.Gemini.DraftModel == "" {
		cfg.Gemini.DraftModel = defaultDraftModel
	}
	if cfg.Gemini.ImageModel == "" {
		cfg.Gemini.ImageModel = defaultImageModel
	}
	if cfg.Gemini.EditModel == "" {
		cfg.Gemini.EditModel = defaultEditModel
	}
	if cfg.Gemini.Brand == "" {
		cfg.Gemini.Brand = defaultBrand
	}
}

func applyDraftDefaults(cfg *Config) {
	if cfg.Draft.Provider == "" {
		cfg.Draft.Provider = defaultDraftProvider
	}
	if cfg.Draft.GroqModel == "" {
		cfg.Draft.GroqModel = defaultGroqModel
	}
}

func applyImageDefaults(cfg *Config) {
	if cfg.Image.AspectRatio == "" {
		cfg.Image.AspectRatio = string(content.AspectSquare)
	}
	if cfg.Image.Resolution == "" {
		cfg.Image.Resolution = string(content.ResolutionStandard)
	}
	if cfg.Image.OutputDir == "" {
		cfg.Image.OutputDir = defaultOutputDir
	}
}

func applyKeysDefaults(cfg *Config) {
	if cfg.Keys.Store == "" {
		cfg.Keys.Store = defaultKeyStore
	}
	if cfg.Keys.SecretName == "" {
		cfg.Keys.SecretName = defaultSecretName
	}
	if cfg.Keys.EnvFile == "" {
		cfg.Keys.EnvFile = defaultEnvFile
	}
	if cfg.Keys.KeyURL == "" {
		cfg.Keys.KeyURL = defaultKeyURL
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaultStorageBackend
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = defaultStoragePrefix
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = defaultRateLimit
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = defaultBurst
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = defaultSessionTTL
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
