package port

import (
	"context"
	"errors"
)

var (
	// ErrUpsertUnsupported хранилище не умеет перезаписывать объект одним вызовом
	ErrUpsertUnsupported = errors.New("upsert is not supported")
	// ErrObjectExists объект уже есть, а перезапись не запрошена
	ErrObjectExists = errors.New("object already exists")
)

// SelfieStorage интерфейс объектного хранилища селфи
type SelfieStorage interface {
	// Upload загружает данные по ключу; при upsert существующий объект перезаписывается
	Upload(ctx context.Context, key string, data []byte, contentType string, upsert bool) error

	// Remove удаляет объект; отсутствие объекта не ошибка
	Remove(ctx context.Context, key string) error

	// Exists проверяет наличие объекта
	Exists(ctx context.Context, key string) (bool, error)

	// PublicURL возвращает публичную ссылку на объект
	PublicURL(ctx context.Context, key string) (string, error)
}
