// Package llm adapts hosted language models to the helpdesk pipeline.
//
// The rest of the service treats a model as an opaque oracle: a prompt goes
// in, text comes out. Vision-capable providers also describe screenshots.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/helpdesk-chat/internal/config"
	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// Message is one prior turn rendered for the model.
type Message struct {
	Role    domain.Role
	Content string
}

// Prompt is the full input for a completion: instructions, history and the current query.
type Prompt struct {
	System  string
	History []Message
	Query   string
}

// Oracle completes prompts.
type Oracle interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Describer turns an image into text following instruction.
type Describer interface {
	Describe(ctx context.Context, image []byte, mimeType, instruction string) (string, error)
}

// Client is a provider that can both complete prompts and describe images.
type Client interface {
	Oracle
	Describer
	Provider() string
}

// Options tunes generation for every provider.
type Options struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int
	// BaseURL overrides the provider endpoint; empty uses the SDK default.
	BaseURL string
}

// NewClient builds the provider named in cfg.
func NewClient(cfg config.LLMConfig) (Client, error) {
	opts := Options{
		Model:           cfg.Model,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg.APIKey, opts), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, opts), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, opts), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
