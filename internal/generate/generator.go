// Package generate provides constrained text generation backends.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/hyperjump/recall/internal/config"
)

// Request is a single-turn generation call.
type Request struct {
	System      string
	User        string
	Temperature float64
	// JSON asks the backend to return a single JSON object.
	JSON      bool
	MaxTokens int
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("generator returned no text")

const jsonInstruction = "Respond with a single JSON object and nothing else."

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.GenerationConfig) (Generator, error) {
	switch cfg.Provider {
	case "", "mock":
		return NewMock(), nil
	case "anthropic":
		return NewAnthropic(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens)
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens)
	case "gemini":
		return NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens)
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Provider)
	}
}

// DecodeJSON unmarshals model output into v. Markdown code fences are
// stripped, and output that is not valid JSON is run through jsonrepair once.
func DecodeJSON(raw string, v any) error {
	text := StripFences(raw)
	if text == "" {
		return ErrEmptyResponse
	}
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(text)
	if repairErr != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("invalid JSON after repair: %w", err)
	}
	return nil
}

// StripFences removes a surrounding ```json ... ``` block, if any, and trims space.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the language tag line.
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func withJSONInstruction(system string, json bool) string {
	if !json {
		return system
	}
	if system == "" {
		return jsonInstruction
	}
	return system + "\n\n" + jsonInstruction
}
