package port

import (
	"context"
	"errors"

	"bitid-bot/internal/domain/entity"
)

// ErrUserNotFound записи о пользователе нет
var ErrUserNotFound = errors.New("user not found")

// UserRecordRepository интерфейс реляционного хранилища зарегистрированных пользователей
type UserRecordRepository interface {
	// FindByUserID возвращает запись или ErrUserNotFound
	FindByUserID(ctx context.Context, userID int64) (*entity.UserRecord, error)

	// Insert добавляет запись; повторная вставка того же пользователя не создаёт дубликат
	Insert(ctx context.Context, record entity.UserRecord) error
}
