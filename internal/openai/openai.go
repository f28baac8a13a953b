package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aob-scanner/book-scanner/internal/providers"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAI is a provider for the chat completions API
type OpenAI struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// New returns a new OpenAI provider
func New(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set: %w", providers.ErrNotConfigured)
	}
	return &OpenAI{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{},
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Generate sends one user message holding the prompt and each image as a
// data URL.
func (o *OpenAI) Generate(ctx context.Context, req providers.Request) (*providers.Generation, error) {
	content := []contentPart{{Type: "text", Text: req.Prompt}}
	for _, img := range req.Images {
		content = append(content, contentPart{Type: "image_url", ImageURL: &imageURL{URL: img.DataURL()}})
	}

	requestBody, err := json.Marshal(map[string]any{
		"model": o.Model,
		"messages": []map[string]any{
			{
				"role":    "user",
				"content": content,
			},
		},
		"temperature": req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string  `json:"content"`
				Refusal *string `json:"refusal"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from OpenAI")
	}

	choice := response.Choices[0]
	if choice.Message.Refusal != nil && *choice.Message.Refusal != "" {
		return &providers.Generation{BlockReason: "refusal"}, nil
	}
	if choice.FinishReason == "content_filter" {
		return &providers.Generation{BlockReason: choice.FinishReason}, nil
	}
	return &providers.Generation{Text: choice.Message.Content}, nil
}
