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

	"golang.org/x/sync/errgroup"

	"budgetapp/internal/config"
	"budgetapp/internal/database"
	"budgetapp/internal/logger"
	"budgetapp/internal/router"
	"budgetapp/internal/tokens"
	"budgetapp/internal/validator"
)

// @title           Budget API
// @version         1.0
// @description     Monthly budgets with category groups, spending limits, transactions and payees.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("closing database: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	denylist, err := newDenylist(ctx, appConfig.RedisAddr)
	if err != nil {
		return err
	}

	engine := router.New(router.Deps{
		DB:         dbManager.DB(),
		Denylist:   denylist,
		CORSOrigin: appConfig.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting budget server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// newDenylist uses Redis when an address is configured, otherwise an
// in-process list that does not survive restarts.
func newDenylist(ctx context.Context, redisAddr string) (tokens.Denylist, error) {
	if redisAddr == "" {
		logger.Get().Warn("REDIS_ADDR not set, token revocations are kept in memory")
		return tokens.NewMemoryDenylist(), nil
	}
	client, err := tokens.Connect(ctx, redisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return tokens.NewRedisDenylist(client), nil
}
