package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

// GeminiClient talks to Google Gemini through the genai SDK.
// The SDK client is created lazily on first use.
type GeminiClient struct {
	apiKey string
	opts   Options

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient creates a Gemini client with lazy initialization.
func NewGeminiClient(apiKey string, opts Options) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, opts: opts}
}

// Provider returns the provider name.
func (c *GeminiClient) Provider() string {
	return "gemini"
}

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("google API key not configured")
	}
	clientConfig := &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.opts.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: c.opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	return client, nil
}

// Complete sends the prompt as a single GenerateContent call.
func (c *GeminiClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}
	result, err := client.Models.GenerateContent(ctx, c.opts.Model, geminiContents(prompt), c.generationConfig(prompt.System))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return geminiText(result)
}

// Describe sends the image inline together with the instruction.
func (c *GeminiClient) Describe(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}
	result, err := client.Models.GenerateContent(ctx, c.opts.Model, contents, c.generationConfig(""))
	if err != nil {
		return "", fmt.Errorf("gemini vision request failed: %w", err)
	}
	return geminiText(result)
}

func (c *GeminiClient) generationConfig(system string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	temperature := float32(c.opts.Temperature)
	cfg.Temperature = &temperature
	if c.opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(c.opts.MaxOutputTokens)
	}
	return cfg
}

// geminiContents maps history and query to Gemini roles; Gemini calls the assistant "model".
func geminiContents(prompt Prompt) []*genai.Content {
	contents := make([]*genai.Content, 0, len(prompt.History)+1)
	for _, msg := range prompt.History {
		role := genai.Role(genai.RoleUser)
		if msg.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return append(contents, genai.NewContentFromText(prompt.Query, genai.RoleUser))
}

// geminiText concatenates text parts, skipping thought summaries.
func geminiText(result *genai.GenerateContentResponse) (string, error) {
	var sb strings.Builder
	if result != nil {
		for _, candidate := range result.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil || part.Text == "" || part.Thought {
					continue
				}
				sb.WriteString(part.Text)
			}
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
