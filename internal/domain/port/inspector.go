package port

import (
	"context"
	"errors"

	"bitid-bot/internal/domain/entity"
)

// ErrInspectorUnavailable проверка качества не собрана, селфи принимается без неё
var ErrInspectorUnavailable = errors.New("selfie inspector is not available")

// SelfieInspector интерфейс проверки качества селфи
type SelfieInspector interface {
	// Inspect анализирует изображение и возвращает отчёт о качестве
	Inspect(ctx context.Context, imageData []byte) (*entity.SelfieReport, error)
}
