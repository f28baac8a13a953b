package extraction

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aob-scanner/book-scanner/internal/models"
	"github.com/aob-scanner/book-scanner/internal/providers"
)

// Generative asks a multimodal model for all ten fields at once
type Generative struct {
	gen         providers.Generator
	temperature float64
	setupErr    error
}

// NewGenerative wraps gen. A nil gen (missing credentials) yields a strategy
// that reports not_configured on every call; setupErr, when given, is the
// reason.
func NewGenerative(gen providers.Generator, temperature float64, setupErr error) *Generative {
	return &Generative{gen: gen, temperature: temperature, setupErr: setupErr}
}

func (g *Generative) Name() string { return NameGenerative }

// Configured reports whether a model backend is available
func (g *Generative) Configured() bool {
	return g.gen != nil
}

func (g *Generative) Extract(ctx context.Context, in Input) models.ExtractionResult {
	result := models.ExtractionResult{Strategy: NameGenerative}

	if g.gen == nil {
		cause := g.setupErr
		if cause == nil {
			cause = providers.ErrNotConfigured
		}
		result.Err = &models.GenerationError{Reason: models.ReasonNotConfigured, Err: cause}
		return result
	}

	gen, err := g.gen.Generate(ctx, providers.Request{
		Prompt:      Prompt,
		Images:      in.Images,
		Temperature: g.temperature,
	})
	if err != nil {
		result.Err = &models.GenerationError{Reason: models.ReasonTransport, Err: err}
		return result
	}
	if gen.Blocked() {
		result.Err = &models.GenerationError{Reason: models.ReasonBlocked, Err: errors.New(gen.BlockReason)}
		return result
	}

	rec, failure := ParseModelOutput(gen.Text)
	if failure != nil {
		slog.Warn("Model output could not be parsed", "provider", g.gen.Name(), "err", failure.Cause, "raw", truncate(failure.Raw, 500))
		result.Err = &models.GenerationError{Reason: models.ReasonMalformedOutput, Err: failure}
		return result
	}

	result.Record = rec
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
