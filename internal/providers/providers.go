// Package providers defines the contract every generative model backend
// implements.
package providers

import (
	"context"
	"errors"

	"github.com/aob-scanner/book-scanner/internal/models"
)

// ErrNotConfigured is returned by constructors when credentials are missing
var ErrNotConfigured = errors.New("generative provider not configured")

// Request is one multimodal prompt: text followed by zero or more images
type Request struct {
	Prompt      string
	Images      []models.ImagePayload
	Temperature float64
}

// Generation is the model's raw reply. BlockReason is set instead of Text
// when the provider refused to answer.
type Generation struct {
	Text        string
	BlockReason string
}

// Blocked reports whether the provider refused the request
func (g *Generation) Blocked() bool {
	return g != nil && g.BlockReason != ""
}

// Generator sends a request to a model and returns its raw text
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Generation, error)
}
