package container

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bitid-bot/config"
	"bitid-bot/internal/domain/port"
	"bitid-bot/internal/infrastructure/llm"
	"bitid-bot/internal/infrastructure/storage"
	"bitid-bot/internal/infrastructure/vision"
	"bitid-bot/internal/server"
)

// Infrastructure внешние зависимости, выбранные конфигурацией.
type Infrastructure struct {
	Sessions  port.SessionRepository
	Records   port.UserRecordRepository
	Selfies   port.SelfieStorage
	Inspector port.SelfieInspector
	Completer port.Completer

	// Checks проверки готовности для /readyz
	Checks map[string]server.Checker

	closers []func()
}

// Open подключается ко всем внешним сервисам. При ошибке уже открытые
// соединения закрываются.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *Infrastructure, err error) {
	infra := &Infrastructure{Checks: make(map[string]server.Checker)}
	defer func() {
		if err != nil {
			infra.Close()
		}
	}()

	if err := infra.openSessions(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if err := infra.openRecords(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if err := infra.openSelfies(ctx, cfg); err != nil {
		return nil, err
	}
	if err := infra.openCompleter(ctx, cfg, logger); err != nil {
		return nil, err
	}

	if cfg.SelfieQualityGate {
		infra.Inspector = vision.NewSelfieInspector()
		logger.Info().Msg("selfie quality gate enabled")
	}

	return infra, nil
}

// Close закрывает соединения в обратном порядке.
func (i *Infrastructure) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
	i.closers = nil
}

func (i *Infrastructure) openSessions(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.Session.Backend != config.SessionBackendRedis {
		i.Sessions = storage.NewMemorySessionRepository()
		logger.Info().Msg("sessions are kept in memory")
		return nil
	}

	client, err := storage.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	i.closers = append(i.closers, func() { _ = client.Close() })
	i.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

	i.Sessions = storage.NewRedisSessionRepository(client, cfg.Session.TTL)
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("sessions are kept in redis")
	return nil
}

func (i *Infrastructure) openRecords(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	var records port.UserRecordRepository

	if cfg.Database.URL == "" {
		records = storage.NewMemoryUserRecordRepository()
		logger.Warn().Msg("DATABASE_URL is empty, user records are kept in memory")
	} else {
		pool, err := storage.NewPostgresPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		i.closers = append(i.closers, pool.Close)

		repo := storage.NewPostgresUserRecordRepository(pool)
		i.Checks["postgres"] = repo.Ping
		records = repo
	}

	if cfg.RecordCache.Size <= 0 {
		i.Records = records
		return nil
	}

	cached, err := storage.NewCachedUserRecordRepository(records, cfg.RecordCache.Size, cfg.RecordCache.TTL)
	if err != nil {
		return fmt.Errorf("record cache: %w", err)
	}
	i.closers = append(i.closers, cached.Close)
	i.Records = cached
	return nil
}

func (i *Infrastructure) openSelfies(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Driver {
	case config.StorageDriverCloudinary:
		s, err := storage.NewCloudinarySelfieStorage(
			cfg.Cloudinary.CloudName,
			cfg.Cloudinary.APIKey,
			cfg.Cloudinary.APISecret,
			cfg.Cloudinary.Folder,
		)
		if err != nil {
			return fmt.Errorf("cloudinary: %w", err)
		}
		i.Selfies = s
		return nil

	default:
		s, err := storage.NewS3SelfieStorage(storage.S3Config{
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			UseSSL:        cfg.S3.UseSSL,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("s3 bucket: %w", err)
		}
		i.Checks["storage"] = s.Ping
		i.Selfies = s
		return nil
	}
}

func (i *Infrastructure) openCompleter(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	switch cfg.LLM.Provider {
	case config.LLMProviderGemini:
		if cfg.Gemini.APIKey == "" {
			logger.Warn().Msg("GEMINI_API_KEY is empty, assistant will apologize")
			return nil
		}
		c, err := llm.NewGeminiCompleter(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, "")
		if err != nil {
			return err
		}
		i.Completer = c

	default:
		if cfg.OpenAI.APIKey == "" {
			logger.Warn().Msg("OPENAI_API_KEY is empty, assistant will apologize")
			return nil
		}
		c, err := llm.NewOpenAICompleter(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		if err != nil {
			return err
		}
		i.Completer = c
	}
	return nil
}
