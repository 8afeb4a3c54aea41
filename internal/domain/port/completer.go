package port

import "context"

// Completer интерфейс сервиса языковой модели
type Completer interface {
	// Complete выполняет один запрос с системной инструкцией и возвращает ответ
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}
