package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bitid-bot/config"
	telegram "bitid-bot/internal/api"
	"bitid-bot/internal/container"
	"bitid-bot/internal/dispatch"
	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/infrastructure/storage"
	"bitid-bot/internal/knowledge"
	applog "bitid-bot/internal/log"
	"bitid-bot/internal/metrics"
	"bitid-bot/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	root := &cobra.Command{
		Use:           "bitid-bot",
		Short:         "BitID Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the monitoring HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the users table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context())
		},
	}

	root.AddCommand(serve, migrate)
	// Без подкоманды запускаем бота
	root.RunE = serve.RunE

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	return cfg, applog.New(cfg.AppEnv, cfg.LogLevel), nil
}

func runServe(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx = logger.WithContext(ctx)

	kb, err := knowledge.Load()
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	infra, err := container.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.Debug, logger)
	if err != nil {
		return err
	}
	if err := bot.RegisterCommands(); err != nil {
		logger.Warn().Err(err).Msg("register bot commands failed")
	}

	c := container.New(container.Deps{
		Sessions:         infra.Sessions,
		Records:          infra.Records,
		Selfies:          infra.Selfies,
		Inspector:        infra.Inspector,
		Completer:        infra.Completer,
		Messenger:        bot,
		Knowledge:        kb,
		Metrics:          m,
		AssistantTimeout: cfg.Assistant.Timeout,
		Logger:           logger,
	})

	// События, уже принятые в очередь, дорабатываются после сигнала остановки.
	dispatcher := dispatch.New[int64, entity.Event](
		context.WithoutCancel(ctx),
		cfg.MaxConcurrentEvents,
		c.Controller.Handle,
		m,
	)

	srv := server.New(cfg.HTTPAddr, server.Router(reg, infra.Checks))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Msg("bot is running")
		err := bot.Run(gctx, func(ev entity.Event) {
			dispatcher.Submit(ev.UserID, ev)
		})
		dispatcher.Wait()
		logger.Info().Msg("all queued events handled")
		return err
	})

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("monitoring server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runMigrate(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := storage.NewPostgresPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := storage.NewPostgresUserRecordRepository(pool).Migrate(ctx); err != nil {
		return err
	}

	logger.Info().Msg("users table is ready")
	return nil
}
