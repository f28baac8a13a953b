package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aob-scanner/book-scanner/internal/providers"
)

// Ollama is a provider for a local Ollama server running a vision model
type Ollama struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// New returns a new Ollama provider
func New(baseURL, model string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Model:      model,
		HTTPClient: &http.Client{},
	}
}

func (o *Ollama) Name() string { return "ollama" }

// Generate calls /api/generate with the images attached as base64
func (o *Ollama) Generate(ctx context.Context, req providers.Request) (*providers.Generation, error) {
	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, base64.StdEncoding.EncodeToString(img.Data))
	}

	requestBody, err := json.Marshal(map[string]any{
		"model":  o.Model,
		"prompt": req.Prompt,
		"images": images,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": req.Temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/generate", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &providers.Generation{Text: response.Response}, nil
}
