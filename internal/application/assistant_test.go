package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bitid-bot/internal/domain/port"
	"bitid-bot/internal/knowledge"
)

func newAssistant(t *testing.T, completer port.Completer, timeout time.Duration) *AssistantService {
	t.Helper()
	kb, err := knowledge.Load()
	require.NoError(t, err)
	return NewAssistantService(completer, kb, timeout, nil)
}

func TestAssistantService_SystemPrompt(t *testing.T) {
	prompt := newAssistant(t, nil, 0).SystemPrompt()

	require.Contains(t, prompt, "Buddy")
	require.Contains(t, prompt, "WHAT IS BitID")
	require.Contains(t, prompt, "Your face is your public ID")
	require.Contains(t, prompt, Refusal)
}

func TestAssistantService_AnswersFromKnowledgeBase(t *testing.T) {
	completer := &fakeCompleter{}
	a := newAssistant(t, completer, 0)

	answer := a.Ask(context.Background(), "What is BitID?")
	require.Contains(t, answer, "network of human participants")
	require.Equal(t, 1, completer.callCount())
}

func TestAssistantService_RefusesOutsideKnowledgeBase(t *testing.T) {
	completer := &fakeCompleter{}
	a := newAssistant(t, completer, 0)

	require.Equal(t, Refusal, a.Ask(context.Background(), "What is the weather today?"))
}

func TestAssistantService_ApologizesOnFailureWithoutRetry(t *testing.T) {
	completer := &fakeCompleter{err: errBoom}
	a := newAssistant(t, completer, 0)

	require.Equal(t, Apology, a.Ask(context.Background(), "What is BitID?"))
	require.Equal(t, 1, completer.callCount())
}

func TestAssistantService_ApologizesWithoutCompleter(t *testing.T) {
	require.Equal(t, Apology, newAssistant(t, nil, 0).Ask(context.Background(), "What is BitID?"))
}

type slowCompleter struct{}

func (slowCompleter) Complete(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type blankCompleter struct{}

func (blankCompleter) Complete(context.Context, string, string) (string, error) {
	return "  \n", nil
}

func TestAssistantService_Timeout(t *testing.T) {
	a := newAssistant(t, slowCompleter{}, 10*time.Millisecond)
	require.Equal(t, Apology, a.Ask(context.Background(), "What is BitID?"))
}

func TestAssistantService_EmptyAnswer(t *testing.T) {
	require.Equal(t, Apology, newAssistant(t, blankCompleter{}, 0).Ask(context.Background(), "What is BitID?"))
}
