package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/hostres/internal/api/http"
	"github.com/spec-kit/hostres/internal/api/http/handlers"
	"github.com/spec-kit/hostres/internal/auth"
	"github.com/spec-kit/hostres/internal/cache"
	"github.com/spec-kit/hostres/internal/config"
	"github.com/spec-kit/hostres/internal/events"
	"github.com/spec-kit/hostres/internal/observability"
	"github.com/spec-kit/hostres/internal/persistence"
	"github.com/spec-kit/hostres/internal/policy"
	"github.com/spec-kit/hostres/internal/repository"
	"github.com/spec-kit/hostres/internal/repository/memory"
	"github.com/spec-kit/hostres/internal/service"
	"github.com/spec-kit/hostres/internal/worker"
)

type stores struct {
	users   repository.UserRepository
	issues  repository.IssueRepository
	history repository.IssueHistoryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, !cfg.App.IsProduction())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.App, cfg.Tracing)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos, err := openStores(ctx, cfg.Postgres, pg, logger)
	if err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	fields, err := policy.PolicyByName(cfg.Issues.FieldPolicy)
	if err != nil {
		logger.Fatal("invalid field policy", zap.Error(err))
	}

	metrics := observability.NewMetrics(cfg.App.Name)
	dispatcher := events.NewInMemoryDispatcher()

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification, metrics)
	pool := worker.NewPool(cfg.Notification.Workers, cfg.Notification.QueueSize, logger)
	worker.StartNotificationWorker(ctx, notifications, pool)

	userCache := cache.NewUserCache(redis.Client, cfg.Cache.UserTTL(), metrics, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	authService := service.NewAuthService(cfg.Auth, repos.users, tokens, userCache)
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:   repos.issues,
		HistoryRepo: repos.history,
		UserRepo:    repos.users,
		UserCache:   userCache,
		Dispatcher:  dispatcher,
	}, fields, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:        handlers.NewAuthHandler(authService),
		Issues:      handlers.NewIssuesHandler(issueService),
		Gate:        auth.NewGate(tokens),
		RateLimiter: httptransport.NewRateLimiter(redis.Client, cfg.RateLimit, metrics, logger),
		Metrics:     metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	pool.Stop()
	cancel()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
}

// openStores picks Postgres-backed repositories when a pool is available and
// falls back to in-memory stores otherwise.
func openStores(ctx context.Context, cfg config.PostgresConfig, pg *persistence.Postgres, logger *zap.Logger) (stores, error) {
	db := pg.PoolHandle()
	if db == nil {
		logger.Warn("using in-memory stores; data is lost on restart")
		return stores{users: memory.NewUsers(), issues: memory.NewIssues(), history: memory.NewHistory()}, nil
	}

	if cfg.RunMigrations {
		if err := persistence.RunMigrations(ctx, db, cfg.MigrationsDir, logger); err != nil {
			return stores{}, err
		}
	}
	return stores{
		users:   repository.NewUserRepository(db),
		issues:  repository.NewIssueRepository(db),
		history: repository.NewIssueHistoryRepository(db),
	}, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
