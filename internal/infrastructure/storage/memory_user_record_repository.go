package storage

import (
	"context"
	"sync"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

// MemoryUserRecordRepository in-memory записи пользователей для локального запуска без БД
type MemoryUserRecordRepository struct {
	mu      sync.RWMutex
	records map[int64]entity.UserRecord
}

func NewMemoryUserRecordRepository() *MemoryUserRecordRepository {
	return &MemoryUserRecordRepository{
		records: make(map[int64]entity.UserRecord),
	}
}

func (r *MemoryUserRecordRepository) FindByUserID(ctx context.Context, userID int64) (*entity.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[userID]
	if !ok {
		return nil, port.ErrUserNotFound
	}
	return &record, nil
}

// Insert как и в БД, повторная вставка ничего не меняет
func (r *MemoryUserRecordRepository) Insert(ctx context.Context, record entity.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.UserID]; !exists {
		r.records[record.UserID] = record
	}
	return nil
}

// Len количество записей
func (r *MemoryUserRecordRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

var _ port.UserRecordRepository = (*MemoryUserRecordRepository)(nil)
