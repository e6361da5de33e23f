package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/api"
	"github.com/saturnino-fabrica-de-software/ponto/internal/config"
	"github.com/saturnino-fabrica-de-software/ponto/internal/database"
	"github.com/saturnino-fabrica-de-software/ponto/internal/face"
	"github.com/saturnino-fabrica-de-software/ponto/internal/liveness"
	"github.com/saturnino-fabrica-de-software/ponto/internal/repository"
	"github.com/saturnino-fabrica-de-software/ponto/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	logger.Info("starting Ponto API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
		slog.String("timezone", loc.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		change, err := migrate(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Info("database schema up to date", slog.Any("schema", change))
	}

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	encoder, detector, err := face.NewProviders(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face providers: %w", err)
	}

	// Repositories
	users := repository.NewUserRepository(pool)
	sessions := repository.NewAttendanceRepository(pool)

	// Services
	extractor := face.NewExtractor(encoder, cfg.EncodingJitters, logger)
	matcher := face.NewMatcher(face.Policy{
		MatchThreshold:     cfg.MatchThreshold,
		AuthThreshold:      cfg.AuthThreshold,
		DuplicateThreshold: cfg.DuplicateThreshold,
		AmbiguityMargin:    cfg.AmbiguityMargin,
	})
	verifier := liveness.NewVerifier(detector, liveness.Options{
		Frames:            cfg.SpoofCheckFrames,
		MovementThreshold: cfg.HeadMovementThreshold,
		EyeBrightness:     cfg.EyeOpenBrightness,
	}, logger)

	faceService := service.NewFaceService(users, extractor, matcher, verifier, logger).
		WithImageLimits(cfg.MinFaceImages, cfg.MaxFaceImages)
	attendanceService := service.NewAttendanceService(sessions, users, loc, logger)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Faces:      faceService,
		Punches:    attendanceService,
		Attendance: attendanceService,
		Users:      service.NewUserService(users, logger),
		DB:         pool,
	}, api.Options{
		AuthRateLimit: cfg.AuthRateLimit,
		CORSOrigins:   cfg.CORSOrigins,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}

func migrate(ctx context.Context, dsn string) (database.SchemaChange, error) {
	name, err := database.DatabaseName(dsn)
	if err != nil {
		return database.SchemaChange{}, err
	}
	db, err := database.OpenSQL(ctx, dsn)
	if err != nil {
		return database.SchemaChange{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrator, err := database.NewMigrator(db, name)
	if err != nil {
		_ = db.Close()
		return database.SchemaChange{}, err
	}
	defer func() { _ = migrator.Close() }()

	return migrator.Up()
}
