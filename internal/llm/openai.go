package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

// OpenAIClient talks to the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey string
	opts   Options

	mu     sync.Mutex
	client *openai.Client
}

// NewOpenAIClient creates an OpenAI client with lazy initialization.
func NewOpenAIClient(apiKey string, opts Options) *OpenAIClient {
	return &OpenAIClient{apiKey: apiKey, opts: opts}
}

// Provider returns the provider name.
func (c *OpenAIClient) Provider() string {
	return "openai"
}

func (c *OpenAIClient) sdk() (*openai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}
	// Retries are handled by the retry wrapper so attempts are counted in one place.
	options := []option.RequestOption{
		option.WithAPIKey(c.apiKey),
		option.WithMaxRetries(0),
	}
	if c.opts.BaseURL != "" {
		options = append(options, option.WithBaseURL(c.opts.BaseURL))
	}
	client := openai.NewClient(options...)
	c.client = &client
	return c.client, nil
}

// Complete sends system prompt, history and query as a chat completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(prompt.History)+2)
	if prompt.System != "" {
		messages = append(messages, openai.SystemMessage(prompt.System))
	}
	for _, msg := range prompt.History {
		if msg.Role == domain.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(msg.Content))
		} else {
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(prompt.Query))
	return c.send(ctx, messages)
}

// Describe sends the image as a data URI content part.
func (c *OpenAIClient) Describe(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	dataURI := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(instruction),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI}),
	}
	return c.send(ctx, []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)})
}

func (c *OpenAIClient) send(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	client, err := c.sdk()
	if err != nil {
		return "", err
	}
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.opts.Model),
		Messages:    messages,
		Temperature: openai.Float(c.opts.Temperature),
	}
	if c.opts.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.opts.MaxOutputTokens))
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return completion.Choices[0].Message.Content, nil
}
