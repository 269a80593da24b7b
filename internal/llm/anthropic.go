package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	apiKey string
	opts   Options

	mu     sync.Mutex
	client *anthropic.Client
}

// NewAnthropicClient creates an Anthropic client with lazy initialization.
func NewAnthropicClient(apiKey string, opts Options) *AnthropicClient {
	return &AnthropicClient{apiKey: apiKey, opts: opts}
}

// Provider returns the provider name.
func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

func (c *AnthropicClient) sdk() (*anthropic.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}
	options := []option.RequestOption{
		option.WithAPIKey(c.apiKey),
		option.WithMaxRetries(0),
	}
	if c.opts.BaseURL != "" {
		options = append(options, option.WithBaseURL(c.opts.BaseURL))
	}
	client := anthropic.NewClient(options...)
	c.client = &client
	return c.client, nil
}

// Complete sends history and query; the system prompt goes in the dedicated field.
func (c *AnthropicClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(prompt.History)+1)
	for _, msg := range prompt.History {
		if msg.Role == domain.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.Query)))
	return c.send(ctx, prompt.System, messages)
}

// Describe sends the image as a base64 block followed by the instruction.
func (c *AnthropicClient) Describe(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)
	message := anthropic.NewUserMessage(
		anthropic.NewImageBlockBase64(mimeType, encoded),
		anthropic.NewTextBlock(instruction),
	)
	return c.send(ctx, "", []anthropic.MessageParam{message})
}

func (c *AnthropicClient) send(ctx context.Context, system string, messages []anthropic.MessageParam) (string, error) {
	client, err := c.sdk()
	if err != nil {
		return "", err
	}
	maxTokens := int64(c.opts.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.opts.Model),
		MaxTokens:   maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(c.opts.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
