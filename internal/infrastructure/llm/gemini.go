package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"bitid-bot/internal/domain/port"
)

// DefaultGeminiModel модель по умолчанию
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiCompleter отвечает через Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKey, model, baseURL string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userMessage), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}

var _ port.Completer = (*GeminiCompleter)(nil)
