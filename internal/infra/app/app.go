package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/contalabs/accounts-api/internal/infra/config"
	"github.com/contalabs/accounts-api/internal/infra/database"
	"github.com/contalabs/accounts-api/internal/infra/ipintel"
	"github.com/contalabs/accounts-api/internal/infra/logger"
	"github.com/contalabs/accounts-api/internal/infra/mail"
	redisinfra "github.com/contalabs/accounts-api/internal/infra/redis"
	postgresrepo "github.com/contalabs/accounts-api/internal/repository/postgres"
	redisrepo "github.com/contalabs/accounts-api/internal/repository/redis"
	"github.com/contalabs/accounts-api/internal/transport/http/middleware"
	"github.com/contalabs/accounts-api/internal/transport/http/routes"
	"github.com/contalabs/accounts-api/internal/usecase"
)

// Application owns the wired collaborators and the HTTP server lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	activity *usecase.ActivityLogService
}

// New wires configuration, infrastructure, repositories, services, and routes.
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

	repos := postgresrepo.NewRepositories(pool)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitStore(redisClient.Client(), cfg.Redis.KeyPrefix, rateLimitWindow*2)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, cfg.RateLimit.MaxRequests, rateLimitWindow, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	intel := ipintel.NewClient(cfg.IPIntel)
	activityService := usecase.NewActivityLogService(repos.ActivityLogs, intel, log)

	mailer := mail.NewSMTPMailer(cfg.SMTP, log)

	accountService := usecase.NewAccountService(repos.Accounts, repos.ResetRequests, activityService, log)
	passwordResetService := usecase.NewPasswordResetService(repos.Accounts, repos.ResetRequests, mailer, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Accounts:      accountService,
			PasswordReset: passwordResetService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		activity: activityService,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully and flushes in-flight activity records.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()
	defer a.activity.Flush()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("starting accounts API",
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
