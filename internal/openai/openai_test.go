package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/aob-scanner/book-scanner/internal/models"
	"github.com/aob-scanner/book-scanner/internal/providers"
	"github.com/jarcoal/httpmock"
)

const completionsURL = "https://api.openai.com/v1/chat/completions"

func newTestClient(t *testing.T, responder httpmock.Responder) *OpenAI {
	t.Helper()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, completionsURL, responder)
	o, err := New("sk-test", "gpt-4o")
	if err != nil {
		t.Fatal(err)
	}
	o.HTTPClient.Transport = transport
	return o
}

func TestGenerate(t *testing.T) {
	var auth string
	var body struct {
		Messages []struct {
			Content []contentPart `json:"content"`
		} `json:"messages"`
	}
	o := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		auth = req.Header.Get("Authorization")
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return nil, err
		}
		return httpmock.NewStringResponse(http.StatusOK,
			`{"choices":[{"message":{"content":"{\"title\":\"Dune\"}"},"finish_reason":"stop"}]}`), nil
	})

	gen, err := o.Generate(context.Background(), providers.Request{
		Prompt: "extract",
		Images: []models.ImagePayload{{Data: []byte("abc"), MIMEType: "image/png"}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Text != `{"title":"Dune"}` || gen.Blocked() {
		t.Errorf("gen = %+v", gen)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if len(body.Messages) != 1 || len(body.Messages[0].Content) != 2 {
		t.Fatalf("messages = %+v", body.Messages)
	}
	img := body.Messages[0].Content[1]
	if img.Type != "image_url" || img.ImageURL == nil || !strings.HasPrefix(img.ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("image part = %+v", img)
	}
}

func TestGenerateRefusal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"refusal", `{"choices":[{"message":{"content":"","refusal":"I can't help with that"},"finish_reason":"stop"}]}`, "refusal"},
		{"content filter", `{"choices":[{"message":{"content":""},"finish_reason":"content_filter"}]}`, "content_filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestClient(t, httpmock.NewStringResponder(http.StatusOK, tt.body))
			gen, err := o.Generate(context.Background(), providers.Request{Prompt: "x"})
			if err != nil {
				t.Fatal(err)
			}
			if gen.BlockReason != tt.want {
				t.Errorf("BlockReason = %q, want %q", gen.BlockReason, tt.want)
			}
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	o := newTestClient(t, httpmock.NewStringResponder(http.StatusTooManyRequests, "slow down"))
	if _, err := o.Generate(context.Background(), providers.Request{Prompt: "x"}); err == nil {
		t.Error("expected status error")
	}

	o = newTestClient(t, httpmock.NewStringResponder(http.StatusOK, `{"choices":[]}`))
	if _, err := o.Generate(context.Background(), providers.Request{Prompt: "x"}); err == nil {
		t.Error("expected error for empty choices")
	}

	if _, err := New("", "gpt-4o"); !errors.Is(err, providers.ErrNotConfigured) {
		t.Errorf("New() error = %v", err)
	}
}
