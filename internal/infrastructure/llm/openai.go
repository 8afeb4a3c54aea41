package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"bitid-bot/internal/domain/port"
)

// DefaultOpenAIModel модель по умолчанию
const DefaultOpenAIModel = "gpt-3.5-turbo"

// OpenAICompleter отвечает через Chat Completions API.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter клиент без автоматических повторов: ошибка сразу уходит пользователю.
func NewOpenAICompleter(apiKey, model string, opts ...option.RequestOption) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &OpenAICompleter{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMessage),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat completion: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ port.Completer = (*OpenAICompleter)(nil)
