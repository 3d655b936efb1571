// Command seed fills the configured store with demo students, resolvers and issues.
package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/spec-kit/hostres/internal/auth"
	"github.com/spec-kit/hostres/internal/config"
	"github.com/spec-kit/hostres/internal/events"
	"github.com/spec-kit/hostres/internal/observability"
	"github.com/spec-kit/hostres/internal/persistence"
	"github.com/spec-kit/hostres/internal/policy"
	"github.com/spec-kit/hostres/internal/repository"
	"github.com/spec-kit/hostres/internal/seed"
	"github.com/spec-kit/hostres/internal/service"
)

func main() {
	students := flag.Int("students", 20, "number of students to create")
	perStudent := flag.Int("issues", 3, "issues filed by each student")
	seedValue := flag.Int64("seed", 0, "random seed; 0 picks one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, true)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	db := pg.PoolHandle()
	if db == nil {
		logger.Fatal("POSTGRES_DSN is required for seeding")
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, db, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	fields, err := policy.PolicyByName(cfg.Issues.FieldPolicy)
	if err != nil {
		logger.Fatal("invalid field policy", zap.Error(err))
	}

	users := repository.NewUserRepository(db)
	authService := service.NewAuthService(cfg.Auth, users, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes), nil)
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:   repository.NewIssueRepository(db),
		HistoryRepo: repository.NewIssueHistoryRepository(db),
		UserRepo:    users,
		Dispatcher:  events.NewInMemoryDispatcher(),
	}, fields, logger)

	res, err := seed.NewSeeder(authService, issueService, *seedValue, logger).Run(ctx, seed.Options{
		Students:         *students,
		IssuesPerStudent: *perStudent,
	})
	if err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("demo accounts ready",
		zap.Int("students", len(res.Students)),
		zap.String("password", seed.DemoPassword))
}
