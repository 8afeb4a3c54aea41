package storage

import (
	"context"
	"sync"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий, живёт до перезапуска процесса
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]entity.Session
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[int64]entity.Session),
	}
}

// Get возвращает копию сессии по ID, создаёт новую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	r.mu.RLock()
	session, exists := r.sessions[userID]
	r.mu.RUnlock()

	if exists {
		return &session, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Пока ждали блокировку, сессию мог создать другой обработчик
	if session, exists := r.sessions[userID]; exists {
		return &session, nil
	}

	newSession := entity.NewSession(userID, chatID)
	r.sessions[userID] = *newSession

	return newSession, nil
}

// Save сохраняет состояние сессии
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	r.sessions[session.UserID] = *session
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
