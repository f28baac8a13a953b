package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.StorageBackend != "gcs" {
		t.Errorf("expected gcs backend, got %s", cfg.StorageBackend)
	}
	if cfg.GenerativeProvider != "gemini" {
		t.Errorf("expected gemini provider, got %s", cfg.GenerativeProvider)
	}
	if cfg.LookupTimeout != 10*time.Second {
		t.Errorf("expected 10s lookup timeout, got %v", cfg.LookupTimeout)
	}
	if len(cfg.SeedStrategies) != 0 {
		t.Errorf("expected no seed strategies, got %v", cfg.SeedStrategies)
	}
	if cfg.BucketName != "" {
		t.Errorf("expected empty bucket, got %s", cfg.BucketName)
	}
}

func TestFromViperOverrides(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		"bucket_name":     "covers",
		"seed_strategies": "OCR, barcode",
		"lookup_timeout":  "3s",
		"public_base_url": "https://scan.example.org/",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BucketName != "covers" {
		t.Errorf("expected bucket covers, got %s", cfg.BucketName)
	}
	if !cfg.HasSeed(SeedOCR) || !cfg.HasSeed(SeedBarcode) {
		t.Errorf("expected both seeds enabled, got %v", cfg.SeedStrategies)
	}
	if cfg.LookupTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.LookupTimeout)
	}
	if cfg.PublicBaseURL != "https://scan.example.org" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.PublicBaseURL)
	}
}

func TestFromViperRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{name: "storage backend", values: map[string]any{"storage_backend": "s3"}},
		{name: "provider", values: map[string]any{"generative_provider": "claude"}},
		{name: "seed", values: map[string]any{"seed_strategies": "ocr,qr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromViper(newViper(tt.values)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GCS_BUCKET_NAME", "env-bucket")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "env-project")
	t.Setenv("GEMINI_API_KEY", "key-123")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BucketName != "env-bucket" {
		t.Errorf("expected env-bucket, got %s", cfg.BucketName)
	}
	if cfg.ProjectID != "env-project" {
		t.Errorf("expected env-project, got %s", cfg.ProjectID)
	}
	if cfg.GeminiAPIKey != "key-123" {
		t.Errorf("expected key-123, got %s", cfg.GeminiAPIKey)
	}
}

func TestParseList(t *testing.T) {
	got := ParseList(" ocr,,Barcode ")
	if len(got) != 2 || got[0] != "ocr" || got[1] != "barcode" {
		t.Errorf("unexpected list: %v", got)
	}
}
