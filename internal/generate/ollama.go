package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// Ollama generates text with a local Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama connects to the Ollama server at baseURL (default http://localhost:11434).
func NewOllama(baseURL, model string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		return nil, fmt.Errorf("ollama generator requires generation.model")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Ollama{
		client: ollama.NewClient(u, &http.Client{Timeout: 120 * time.Second}),
		model:  model,
	}, nil
}

// Name returns the provider name.
func (o *Ollama) Name() string { return "ollama" }

// Generate runs a non-streaming generate call.
func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	stream := false
	greq := &ollama.GenerateRequest{
		Model:   o.model,
		Prompt:  req.User,
		System:  req.System,
		Stream:  &stream,
		Options: map[string]any{"temperature": req.Temperature},
	}
	if req.MaxTokens > 0 {
		greq.Options["num_predict"] = req.MaxTokens
	}
	if req.JSON {
		greq.Format = json.RawMessage(`"json"`)
	}

	var b strings.Builder
	err := o.client.Generate(ctx, greq, func(resp ollama.GenerateResponse) error {
		b.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
