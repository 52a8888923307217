package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
	"github.com/davyreactiv/ufsc-licence-service/internal/infra/config"
	"github.com/davyreactiv/ufsc-licence-service/internal/infra/database"
	kafkainfra "github.com/davyreactiv/ufsc-licence-service/internal/infra/kafka"
	"github.com/davyreactiv/ufsc-licence-service/internal/infra/logger"
	redisinfra "github.com/davyreactiv/ufsc-licence-service/internal/infra/redis"
	"github.com/davyreactiv/ufsc-licence-service/internal/infra/telemetry"
	postgresrepo "github.com/davyreactiv/ufsc-licence-service/internal/repository/postgres"
	redisrepo "github.com/davyreactiv/ufsc-licence-service/internal/repository/redis"
	"github.com/davyreactiv/ufsc-licence-service/internal/transport/http/routes"
	"github.com/davyreactiv/ufsc-licence-service/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	licenceCache := redisrepo.NewLicenceCache(redisClient.Client(), cfg.Redis.LicencePrefix)
	cacheTTL := cfg.Redis.LicenceTTL
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}

	repos := postgresrepo.NewRepositories(pool)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	storeMetrics, err := telemetry.NewStoreMetrics(nil)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init store metrics: %w", err)
	}

	licenceService := usecase.NewLicenceService(repos.Licences, repos.Transitions, repos.Clubs, licenceCache, log).
		WithEventPublisher(eventPublisher).
		WithMetrics(storeMetrics).
		WithCacheTTL(cacheTTL)

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Licences: licenceService,
		Database: pool,
		Cache:    redisClient,
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting licence API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
