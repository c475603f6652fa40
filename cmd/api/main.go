package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/chi-portal/internal/config"
	"github.com/Dan9191/chi-portal/internal/handler"
	"github.com/Dan9191/chi-portal/internal/migrations"
	"github.com/Dan9191/chi-portal/internal/repository"
	"github.com/Dan9191/chi-portal/internal/scheduler"
	"github.com/Dan9191/chi-portal/internal/service"
	"github.com/Dan9191/chi-portal/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	if cfg.AutoMigrate {
		applied, err := migrations.NewRunner(db, migrations.Files(), logger).Apply()
		if err != nil {
			logger.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Infof("Applied %d migrations", applied)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	sender := email.NewSender(cfg, logger)
	svc := service.NewService(repo, sender, logger, cfg)
	h := handler.NewHandler(svc, repo.Ping, logger)

	var reminders *scheduler.Scheduler
	if cfg.RemindersEnabled {
		reminders, err = scheduler.New("streak-reminders", cfg.ReminderSchedule, cfg.Location, svc.SendStreakReminders, logger)
		if err != nil {
			logger.Fatalf("Failed to schedule reminders: %v", err)
		}
		reminders.Start()
	}

	purge, err := scheduler.New("magic-link-purge", cfg.PurgeSchedule, cfg.Location, svc.PurgeMagicLinks, logger)
	if err != nil {
		logger.Fatalf("Failed to schedule magic link purge: %v", err)
	}
	purge.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if reminders != nil {
		reminders.Stop(ctx)
	}
	purge.Stop(ctx)
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
