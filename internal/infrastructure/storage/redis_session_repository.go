package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

// SessionKeyPrefix префикс ключей сессий в Redis
const SessionKeyPrefix = "bitid:session:"

// RedisSessionRepository хранит сессии в Redis, переживает перезапуск процесса
type RedisSessionRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisSessionRepository ttl 0 означает "без срока жизни"
func NewRedisSessionRepository(client redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, ttl: ttl}
}

func (r *RedisSessionRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.NewSession(userID, chatID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session entity.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *entity.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func sessionKey(userID int64) string {
	return SessionKeyPrefix + strconv.FormatInt(userID, 10)
}

var _ port.SessionRepository = (*RedisSessionRepository)(nil)
