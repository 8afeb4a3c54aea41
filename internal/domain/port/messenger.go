package port

import (
	"context"

	"bitid-bot/internal/domain/entity"
)

// Messenger интерфейс транспорта исходящих сообщений
type Messenger interface {
	// SendText отправляет текст с необязательной клавиатурой, возвращает ID сообщения
	SendText(ctx context.Context, chatID int64, text string, keyboard *entity.Keyboard) (int, error)

	// EditText заменяет текст и клавиатуру уже отправленного сообщения
	EditText(ctx context.Context, chatID int64, messageID int, text string, keyboard *entity.Keyboard) error

	// SendPhoto отправляет фото по ссылке, возвращает ID сообщения
	SendPhoto(ctx context.Context, chatID int64, url string) (int, error)

	// DeleteMessage удаляет сообщение
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// AnswerCallback снимает индикатор загрузки с нажатой кнопки
	AnswerCallback(ctx context.Context, callbackID string) error

	// Download скачивает присланный файл
	Download(ctx context.Context, fileID string) ([]byte, error)
}
