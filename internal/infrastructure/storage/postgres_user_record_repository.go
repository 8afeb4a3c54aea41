package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

const usersSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id          BIGSERIAL PRIMARY KEY,
		telegram_id BIGINT      NOT NULL UNIQUE,
		bit_id      TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresUserRecordRepository записи пользователей в таблице users
type PostgresUserRecordRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRecordRepository(pool *pgxpool.Pool) *PostgresUserRecordRepository {
	return &PostgresUserRecordRepository{pool: pool}
}

// Migrate создаёт таблицу users, если её ещё нет.
func (r *PostgresUserRecordRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, usersSchema); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *PostgresUserRecordRepository) FindByUserID(ctx context.Context, userID int64) (*entity.UserRecord, error) {
	const query = `
		SELECT telegram_id, bit_id, created_at
		FROM users WHERE telegram_id = $1
	`

	var record entity.UserRecord
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&record.UserID,
		&record.BitID,
		&record.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrUserNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Insert не создаёт дубликат: защита от повторной вставки на стороне БД.
func (r *PostgresUserRecordRepository) Insert(ctx context.Context, record entity.UserRecord) error {
	const query = `
		INSERT INTO users (telegram_id, bit_id, created_at)
		VALUES ($1, $2, COALESCE($3::timestamptz, NOW()))
		ON CONFLICT (telegram_id) DO NOTHING
	`

	var createdAt any
	if !record.CreatedAt.IsZero() {
		createdAt = record.CreatedAt
	}

	_, err := r.pool.Exec(ctx, query, record.UserID, record.BitID, createdAt)
	return err
}

// Ping проверка готовности для /readyz
func (r *PostgresUserRecordRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

var _ port.UserRecordRepository = (*PostgresUserRecordRepository)(nil)
