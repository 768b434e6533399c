package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/marxist91/togoestate/internal/config"
	"github.com/marxist91/togoestate/internal/database"
	"github.com/marxist91/togoestate/internal/notification"
	"github.com/marxist91/togoestate/internal/queue"
	"github.com/marxist91/togoestate/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	notificationSvc := notification.NewService(db)

	registry := queue.NewHandlersRegistry()

	notificationWorker := workers.NewNotificationWorker(notificationSvc)
	reminderWorker := workers.NewReminderWorker(db, notificationSvc)

	registry.Register(queue.TypeNotificationDeliver, asynq.HandlerFunc(notificationWorker.ProcessTask))
	registry.Register(queue.TypeAppointmentReminder, asynq.HandlerFunc(reminderWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
