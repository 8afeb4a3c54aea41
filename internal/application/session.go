package app

import (
	"context"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

// SessionService управляет переходным состоянием диалога
type SessionService struct {
	repo port.SessionRepository
}

func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *SessionService) Save(ctx context.Context, session *entity.Session) error {
	return s.repo.Save(ctx, session)
}

// Update применяет изменение к сессии и сохраняет её.
func (s *SessionService) Update(ctx context.Context, userID, chatID int64, mutate func(*entity.Session)) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	mutate(session)
	if err := s.repo.Save(ctx, session); err != nil {
		return session, err
	}

	return session, nil
}

// Reset возвращает сессию в главное меню, сохраняя признак приветствия.
func (s *SessionService) Reset(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.Update(ctx, userID, chatID, (*entity.Session).ReturnToMenu)
}
