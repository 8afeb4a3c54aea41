package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bitid-bot/internal/domain/port"
	"bitid-bot/internal/knowledge"
	"bitid-bot/internal/metrics"
)

const (
	// Refusal ответ модели на вопрос вне базы знаний
	Refusal = "I don't have that information. Please contact the Architect for more details."
	// Apology ответ пользователю, если сервис модели недоступен
	Apology = "Sorry, I'm having trouble connecting to my AI brain right now. Please try again later or use the menu buttons."
	// PhotoQuestion вопрос за пользователя, приславшего фото вне регистрации
	PhotoQuestion = "What can you tell me about this photo and BitID?"
)

const systemPromptTemplate = `You are Buddy, an assistant for the BitID project. Your goal is to help users understand BitID and encourage them to register by sending their selfie.

IMPORTANT: You can ONLY answer questions based on the following information about BitID:

%s

If a question cannot be answered using ONLY the information above, you MUST respond: "%s"

You speak English, politely and unobtrusively. Never make up information that is not in the knowledge base above.`

// AssistantService отвечает на вопросы строго по базе знаний.
type AssistantService struct {
	completer port.Completer
	prompt    string
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// NewAssistantService создаёт ассистента; timeout 0 означает "без ограничения".
func NewAssistantService(completer port.Completer, kb *knowledge.Base, timeout time.Duration, m *metrics.Metrics) *AssistantService {
	return &AssistantService{
		completer: completer,
		prompt:    fmt.Sprintf(systemPromptTemplate, kb.PromptText(), Refusal),
		timeout:   timeout,
		metrics:   m,
	}
}

// SystemPrompt системная инструкция, с которой уходит каждый вопрос.
func (a *AssistantService) SystemPrompt() string {
	return a.prompt
}

// Ask делает ровно один запрос к модели. При любой ошибке возвращает Apology без повторов.
func (a *AssistantService) Ask(ctx context.Context, question string) string {
	logger := zerolog.Ctx(ctx)

	if a.completer == nil {
		a.metrics.IncAssistant("unconfigured")
		return Apology
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := a.completer.Complete(ctx, a.prompt, question)
	a.metrics.ObserveExternal("completion", start)
	if err != nil {
		logger.Error().Err(err).Msg("completion request failed")
		a.metrics.IncAssistant("failed")
		return Apology
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		logger.Warn().Msg("completion returned empty answer")
		a.metrics.IncAssistant("empty")
		return Apology
	}

	a.metrics.IncAssistant("ok")
	return answer
}
