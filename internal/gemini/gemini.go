package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aob-scanner/book-scanner/internal/providers"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	client *genai.Client
	model  string
}

// New creates a client for the given model. The client is shared by all
// requests and closed with Close.
func New(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set: %w", providers.ErrNotConfigured)
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Close() error {
	return g.client.Close()
}

// Generate sends the prompt and images as a single turn
func (g *Gemini) Generate(ctx context.Context, req providers.Request) (*providers.Generation, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(float32(req.Temperature))

	parts := []genai.Part{genai.Text(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.ImageData(img.Format(), img.Data))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return &providers.Generation{BlockReason: blockReason(blocked)}, nil
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return &providers.Generation{BlockReason: resp.PromptFeedback.BlockReason.String()}, nil
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}

	text := candidateText(resp.Candidates[0])
	if text == "" {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}
	return &providers.Generation{Text: text}, nil
}

func candidateText(c *genai.Candidate) string {
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if txt, ok := p.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

// blockReason names why Gemini refused, whether the prompt or the
// candidate was blocked.
func blockReason(err *genai.BlockedError) string {
	if err.PromptFeedback != nil && err.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return err.PromptFeedback.BlockReason.String()
	}
	if err.Candidate != nil {
		return err.Candidate.FinishReason.String()
	}
	return "blocked"
}
