package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/inwren/auth-service/internal/cache"
	"github.com/inwren/auth-service/internal/config"
	"github.com/inwren/auth-service/internal/events"
	"github.com/inwren/auth-service/internal/service"
	"github.com/inwren/auth-service/internal/storage/minio"
	"github.com/inwren/auth-service/internal/storage/postgres"
	"github.com/inwren/auth-service/internal/tokens"
	transport "github.com/inwren/auth-service/internal/transport/http"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Ключи подписи читаются один раз при старте.
	priv, pub, err := tokens.LoadKeys(cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Error("keys_load_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	codec := tokens.NewCodec(tokens.Config{
		PrivateKey: priv,
		PublicKey:  pub,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	})

	// Миграции перед подключением пула.
	if cfg.DB.Migrate {
		migCtx, migCancel := context.WithTimeout(rootCtx, 30*time.Second)
		err := postgres.RunMigrations(migCtx, cfg.DB.DatabaseURL)
		migCancel()
		if err != nil {
			log.Error("migrations_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		log.Info("migrations_applied")
	}

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer str.Close()
	log.Info("postgres_connected")

	// Сервис.
	srvc := service.New(str, codec, cfg.Auth)
	log.Info("service_initialized")

	// Опциональный кэш пользователей.
	if cfg.Redis.RedisURL != "" {
		ucache, err := cache.NewRedisCache(cfg.Redis.RedisURL, "auth:user:")
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = ucache.Close() }()

		srvc.SetUserCache(ucache, cfg.Redis.UserTTL)
		log.Info("user_cache_enabled", "ttl", cfg.Redis.UserTTL.String())
	}

	// Опциональный продюсер доменных событий.
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = producer.Close() }()

		srvc.SetEventProducer(producer)
		log.Info("event_producer_enabled", "topic", cfg.Kafka.Topic)
	}

	// Опциональное хранилище аватаров.
	if cfg.S3.Endpoint != "" {
		s3Ctx, s3Cancel := context.WithTimeout(rootCtx, 10*time.Second)
		avatars, err := minio.New(s3Ctx, cfg)
		s3Cancel()
		if err != nil {
			log.Error("minio_connect_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}

		srvc.SetAvatarsStorage(avatars)
		log.Info("avatar_storage_enabled", "bucket", cfg.S3.Bucket)
	}

	var ready atomic.Bool

	router := transport.NewRouter(srvc, transport.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
		Ready:   &ready,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	ready.Store(true)

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	ready.Store(false)

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = httpSrv.Close()
	}

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
