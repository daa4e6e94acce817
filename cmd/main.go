package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/avasiliev/muscletrack/internal/config"
	"github.com/avasiliev/muscletrack/internal/logger"
	"github.com/avasiliev/muscletrack/internal/model"
	"github.com/avasiliev/muscletrack/internal/provider"
	"github.com/avasiliev/muscletrack/internal/repository/postgres"
	"github.com/avasiliev/muscletrack/internal/securestore"
	"github.com/avasiliev/muscletrack/internal/security"
	"github.com/avasiliev/muscletrack/internal/service"
	"github.com/avasiliev/muscletrack/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("skipping .env: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	entryRepo := postgres.NewEntryRepository(db, logger)
	tokenManager := token.NewJWT(cfg.JWT.Secret)

	secure, err := securestore.NewFile(cfg.SecureStore.Path, cfg.SecureStore.Key)
	if err != nil {
		logger.Fatal("failed to open secure store", "error", err)
	}

	params := security.Params{
		Time:   cfg.Password.Time,
		MemKiB: cfg.Password.MemKiB,
		Par:    cfg.Password.Par,
	}

	authProvider := provider.NewLocal(userRepo, tokenManager, secure, params, logger)
	if err := authProvider.Start(ctx); err != nil {
		logger.Fatal("failed to start auth provider", "error", err)
	}

	session := service.NewSession(authProvider, userRepo, secure, logger)
	if err := session.RestoreSession(ctx); err != nil {
		logger.Error("failed to restore session", "error", err)
	}

	entries := service.NewEntries(entryRepo, session, logger)

	var cancelSub func()
	if user, ok := session.CurrentUser(); ok {
		logger.Info("session restored", "user_id", user.ID, "name", user.DisplayName)

		if err := entries.Load(ctx); err != nil {
			logger.Error("failed to load entries", "error", err)
		}

		cancelSub, err = entries.Subscribe(ctx,
			func(snapshot []model.MuscleEntry) {
				logger.Info("entries changed", "count", len(snapshot))
			},
			func(err error) {
				logger.Error("entry subscription error", "error", err)
			},
		)
		if err != nil {
			logger.Error("failed to subscribe to entries", "error", err)
		}
	} else {
		logger.Info("no active session, waiting for sign-in")
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	if cancelSub != nil {
		cancelSub()
	}

	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
