package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/progress"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	sweepNow := flag.Bool("sweep-now", false, "Enqueue a missed-schedule sweep at startup")
	flag.Parse()

	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger("study-planner-worker", debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.String("missed_sweep_cron", cfg.MissedSweepCron),
		zap.String("sweep_timezone", cfg.SweepTimezone),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	todos := database.NewTodoRepository(db)
	svc := calendar.NewService(
		database.NewScheduleRepository(db),
		database.NewJourneyRepository(db),
		database.NewConflictRepository(db),
		todos,
		calendar.NewPreferencesService(database.NewPreferencesRepository(db), zapLogger),
		zapLogger,
	)
	syncer := progress.NewService(database.NewLearningPathRepository(db), todos, zapLogger)

	jobQueue, err := queue.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	sweep, err := workers.NewMissedSweepScheduler(cfg.MissedSweepCron, cfg.SweepLocation(), jobQueue, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_schedule_missed_sweep", zap.Error(err))
	}
	sweep.Start()
	defer sweep.Stop()
	if *sweepNow {
		if err := sweep.Trigger(ctx); err != nil {
			zapLogger.Error("failed_to_trigger_missed_sweep", zap.Error(err))
		}
	}

	gc := queue.NewGarbageCollector(jobQueue, time.Hour, 24*time.Hour, zapLogger)
	go func() {
		if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()

	processor := workers.NewJobProcessor(syncer, svc, jobQueue, zapLogger)
	processor.SetLocation(cfg.SweepLocation())

	done := make(chan error, 1)
	go func() { done <- processor.Run(ctx, jobQueue, cfg.RabbitMQPrefetch) }()
	zapLogger.Info("worker_started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zapLogger.Info("worker_shutting_down")
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			zapLogger.Error("worker_stopped_with_error", zap.Error(err))
		}
	}
	zapLogger.Info("worker_stopped")
}
