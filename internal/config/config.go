package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Seed strategies that may discover an ISBN before the lookup runs
const (
	SeedOCR     = "ocr"
	SeedBarcode = "barcode"
)

// Config is built once at startup and handed to every component that needs it.
// Missing values never fail startup; the stage that depends on them reports
// its own error per request instead.
type Config struct {
	Port         string
	MaxBodyBytes int64

	StorageBackend string // "gcs" or "local"
	BucketName     string
	ProjectID      string
	LocalUploadDir string
	PublicBaseURL  string

	GenerativeProvider string // "gemini", "openai" or "ollama"
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIModel        string
	OllamaURL          string
	OllamaModel        string
	Temperature        float64

	GoogleBooksAPIKey   string
	LookupTimeout       time.Duration
	OpenLibraryFallback bool

	SeedStrategies []string
}

// Defaults returns the configuration used when nothing is set
func Defaults() map[string]any {
	return map[string]any{
		"port":                  "8080",
		"max_body_bytes":        int64(20 << 20),
		"storage_backend":       "gcs",
		"local_upload_dir":      "uploads",
		"generative_provider":   "gemini",
		"gemini_model":          "gemini-1.5-flash",
		"openai_model":          "gpt-4o",
		"ollama_url":            "http://localhost:11434",
		"ollama_model":          "mistral-small3.2:24b",
		"temperature":           0.1,
		"lookup_timeout":        10 * time.Second,
		"open_library_fallback": true,
		"seed_strategies":       "",
	}
}

// Load reads .env (if present), the environment and any bound flags
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	if err := bindEnvAliases(v); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	return FromViper(v)
}

// bindEnvAliases maps keys whose environment names differ from the key
func bindEnvAliases(v *viper.Viper) error {
	aliases := map[string][]string{
		"bucket_name": {"GCS_BUCKET_NAME"},
		"project_id":  {"GOOGLE_CLOUD_PROJECT", "GCP_PROJECT"},
		"ollama_url":  {"OLLAMA_URL", "OLLAMA_HOST"},
	}
	for key, envs := range aliases {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// FromViper converts a populated viper instance into a Config
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                v.GetString("port"),
		MaxBodyBytes:        v.GetInt64("max_body_bytes"),
		StorageBackend:      strings.ToLower(v.GetString("storage_backend")),
		BucketName:          v.GetString("bucket_name"),
		ProjectID:           v.GetString("project_id"),
		LocalUploadDir:      v.GetString("local_upload_dir"),
		PublicBaseURL:       strings.TrimSuffix(v.GetString("public_base_url"), "/"),
		GenerativeProvider:  strings.ToLower(v.GetString("generative_provider")),
		GeminiAPIKey:        v.GetString("gemini_api_key"),
		GeminiModel:         v.GetString("gemini_model"),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		OpenAIModel:         v.GetString("openai_model"),
		OllamaURL:           v.GetString("ollama_url"),
		OllamaModel:         v.GetString("ollama_model"),
		Temperature:         v.GetFloat64("temperature"),
		GoogleBooksAPIKey:   v.GetString("google_books_api_key"),
		LookupTimeout:       v.GetDuration("lookup_timeout"),
		OpenLibraryFallback: v.GetBool("open_library_fallback"),
		SeedStrategies:      ParseList(v.GetString("seed_strategies")),
	}

	switch cfg.StorageBackend {
	case "gcs", "local":
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
	switch cfg.GenerativeProvider {
	case "gemini", "openai", "ollama", "none":
	default:
		return nil, fmt.Errorf("unsupported generative provider: %s", cfg.GenerativeProvider)
	}
	for _, s := range cfg.SeedStrategies {
		if s != SeedOCR && s != SeedBarcode {
			return nil, fmt.Errorf("unsupported seed strategy: %s", s)
		}
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 10 * time.Second
	}

	return cfg, nil
}

// HasSeed reports whether the named seed strategy is enabled
func (c *Config) HasSeed(name string) bool {
	for _, s := range c.SeedStrategies {
		if s == name {
			return true
		}
	}
	return false
}

// ParseList splits a comma or whitespace separated list
func ParseList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToLower(f))
	}
	return out
}
