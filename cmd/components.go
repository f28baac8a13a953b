package cmd

import (
	"context"
	"log/slog"

	"github.com/aob-scanner/book-scanner/internal/barcode"
	"github.com/aob-scanner/book-scanner/internal/config"
	"github.com/aob-scanner/book-scanner/internal/extraction"
	"github.com/aob-scanner/book-scanner/internal/gemini"
	"github.com/aob-scanner/book-scanner/internal/lookup"
	"github.com/aob-scanner/book-scanner/internal/metrics"
	"github.com/aob-scanner/book-scanner/internal/ocr"
	"github.com/aob-scanner/book-scanner/internal/ollama"
	"github.com/aob-scanner/book-scanner/internal/openai"
	"github.com/aob-scanner/book-scanner/internal/pipeline"
	"github.com/aob-scanner/book-scanner/internal/providers"
	"github.com/aob-scanner/book-scanner/internal/storage"
)

// components are the long-lived collaborators shared by every request.
// Anything that cannot be built is logged and left unconfigured; the stage
// that needs it reports the failure per request.
type components struct {
	Archiver  *storage.Archiver
	Pipeline  *pipeline.Pipeline
	Metrics   *metrics.Metrics
	UploadDir string
	Provider  string
	Model     string

	closers []func() error
}

func buildComponents(ctx context.Context, cfg *config.Config) *components {
	c := &components{Metrics: metrics.New()}

	c.Archiver = storage.NewArchiver(c.buildStore(ctx, cfg))

	var seeds []extraction.Strategy
	if cfg.HasSeed(config.SeedOCR) {
		rec, err := ocr.NewService(ctx, cfg.ProjectID)
		if err != nil {
			slog.Warn("OCR seed disabled", "err", err)
		} else {
			seeds = append(seeds, extraction.NewHeuristic(rec))
		}
	}
	if cfg.HasSeed(config.SeedBarcode) {
		seeds = append(seeds, extraction.NewBarcode(barcode.NewReader()))
	}

	var (
		enricher     *extraction.Enricher
		lookupBudget = cfg.LookupTimeout
	)
	if chain := buildLookupChain(ctx, cfg); chain != nil {
		enricher = extraction.NewEnricher(chain)
		lookupBudget = chain.Budget()
	}

	c.Pipeline = pipeline.New(pipeline.Options{
		Archiver:      c.Archiver,
		Generative:    c.buildGenerative(ctx, cfg),
		Seeds:         seeds,
		Enricher:      enricher,
		LookupTimeout: lookupBudget,
		Metrics:       c.Metrics,
	})
	return c
}

func (c *components) buildStore(ctx context.Context, cfg *config.Config) storage.BlobStore {
	switch cfg.StorageBackend {
	case "local":
		store, err := storage.NewLocalStore(cfg.LocalUploadDir, cfg.PublicBaseURL)
		if err != nil {
			slog.Warn("Blob store unavailable", "backend", cfg.StorageBackend, "err", err)
			return storage.Unavailable(err)
		}
		c.UploadDir = store.Dir()
		slog.Info("Local blob store ready", "dir", store.Dir())
		return store
	default:
		store, err := storage.NewGCSStore(ctx, cfg.BucketName, cfg.ProjectID)
		if err != nil {
			slog.Warn("Blob store unavailable", "backend", cfg.StorageBackend, "err", err)
			return storage.Unavailable(err)
		}
		return store
	}
}

func (c *components) buildGenerative(ctx context.Context, cfg *config.Config) *extraction.Generative {
	var (
		gen providers.Generator
		err error
	)
	c.Provider = cfg.GenerativeProvider

	switch cfg.GenerativeProvider {
	case "gemini":
		c.Model = cfg.GeminiModel
		var g *gemini.Gemini
		if g, err = gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err == nil {
			gen = g
			c.closers = append(c.closers, g.Close)
		}
	case "openai":
		c.Model = cfg.OpenAIModel
		var o *openai.OpenAI
		if o, err = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel); err == nil {
			gen = o
		}
	case "ollama":
		c.Model = cfg.OllamaModel
		gen = ollama.New(cfg.OllamaURL, cfg.OllamaModel)
	default:
		c.Model = "none"
	}

	if err != nil {
		slog.Warn("Generative model unavailable", "provider", cfg.GenerativeProvider, "err", err)
	} else if gen != nil {
		slog.Info("Generative model ready", "provider", gen.Name(), "model", c.Model)
	}
	return extraction.NewGenerative(gen, cfg.Temperature, err)
}

// buildLookupChain bounds each source by LOOKUP_TIMEOUT; the pipeline gets
// the sum so the fallback still has its full time after a slow first source.
func buildLookupChain(ctx context.Context, cfg *config.Config) *lookup.Chain {
	var sources []lookup.Looker

	gb, err := lookup.NewGoogleBooks(ctx, cfg.GoogleBooksAPIKey, cfg.LookupTimeout)
	if err != nil {
		slog.Warn("Google Books lookup unavailable", "err", err)
	} else {
		sources = append(sources, gb)
	}
	if cfg.OpenLibraryFallback {
		sources = append(sources, lookup.NewOpenLibrary(cfg.LookupTimeout))
	}

	if len(sources) == 0 {
		return nil
	}
	chain := lookup.NewChain(sources...).WithTimeout(cfg.LookupTimeout)
	slog.Info("Bibliographic lookup ready", "sources", chain.Name())
	return chain
}

// Close releases clients that hold connections
func (c *components) Close() {
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			slog.Error("Unable to close client", "err", err)
		}
	}
}
