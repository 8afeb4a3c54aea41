package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

// CachedUserRecordRepository кэширует найденные записи поверх основного хранилища.
// Кэшируются только положительные ответы: записи не удаляются, а отсутствие
// записи может смениться регистрацией в любой момент.
type CachedUserRecordRepository struct {
	next  port.UserRecordRepository
	cache otter.Cache[int64, entity.UserRecord]
}

func NewCachedUserRecordRepository(next port.UserRecordRepository, capacity int, ttl time.Duration) (*CachedUserRecordRepository, error) {
	cache, err := otter.MustBuilder[int64, entity.UserRecord](capacity).WithTTL(ttl).Build()
	if err != nil {
		return nil, fmt.Errorf("build user record cache with capacity %d: %w", capacity, err)
	}
	return &CachedUserRecordRepository{next: next, cache: cache}, nil
}

func (r *CachedUserRecordRepository) FindByUserID(ctx context.Context, userID int64) (*entity.UserRecord, error) {
	if record, ok := r.cache.Get(userID); ok {
		return &record, nil
	}

	record, err := r.next.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(userID, *record)
	return record, nil
}

func (r *CachedUserRecordRepository) Insert(ctx context.Context, record entity.UserRecord) error {
	if err := r.next.Insert(ctx, record); err != nil {
		return err
	}
	// Запись могла уже существовать с другими полями, поэтому кладём в кэш
	// только при следующем чтении.
	r.cache.Delete(record.UserID)
	return nil
}

// Close останавливает фоновые задачи кэша
func (r *CachedUserRecordRepository) Close() {
	r.cache.Close()
}

var _ port.UserRecordRepository = (*CachedUserRecordRepository)(nil)
