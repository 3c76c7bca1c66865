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

	"github.com/folio/backend/internal/app"
	"github.com/folio/backend/internal/background"
	"github.com/folio/backend/internal/config"
	"github.com/folio/backend/internal/handler"
	"github.com/folio/backend/internal/logging"
	"github.com/folio/backend/internal/repository"
	"github.com/folio/backend/internal/service"
	"github.com/folio/backend/pkg/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	ids, closeIdentity, err := app.Identity(ctx, cfg, logger)
	if err != nil {
		logging.Fatal("failed to set up identity provider", "error", err)
	}
	defer func() { _ = closeIdentity() }()

	tasks := background.New(background.Options{
		Workers:     cfg.Background.Workers,
		QueueSize:   cfg.Background.QueueSize,
		TaskTimeout: cfg.Background.TaskTimeout,
	}, logger)

	images, uploads := app.Images(cfg, logger)
	aiClient := app.AIClient(cfg, logger)

	submissionRepo := repository.NewPgSubmissionRepository(pool)
	projectRepo := repository.NewPgProjectRepository(pool)

	categorizer := service.NewCategorizer(aiClient, logger)
	contactService := service.NewContactService(submissionRepo, categorizer, tasks, logger)
	submissionService := service.NewSubmissionService(submissionRepo)
	projectService := service.NewProjectService(projectRepo, images, tasks, cfg.Images.PlaceholderURL, logger)

	var assist service.ProjectAssistService
	if aiClient != nil {
		assist = service.NewProjectAssistService(aiClient)
	}

	router := handler.NewRouter(handler.Routes{
		Base:        handler.New(pool, cfg.FrontendURL),
		Verifier:    auth.NewVerifier(ids, logger),
		Contact:     handler.NewContactHandler(contactService, logger),
		Submissions: handler.NewSubmissionHandler(submissionService, logger),
		Projects:    handler.NewProjectHandler(projectService, assist, logger),
		Uploads:     uploads,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	// requests are drained; now let queued categorization and image cleanup finish
	if err := tasks.Shutdown(shutdownCtx); err != nil {
		logger.Error("background shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
