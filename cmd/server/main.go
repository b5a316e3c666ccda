package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/progress"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/telemetry"
	"github.com/benvon/study-planner/internal/workers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// mockQueueSize bounds the in-process queue used in mock mode
	mockQueueSize   = 256
	reloadInterval  = time.Minute
	dlqGCInterval   = time.Hour
	dlqGCRetention  = 24 * time.Hour
	shutdownTimeout = 30 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including LLM request previews")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(cfg.OTELServiceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.Bool("mock_storage", cfg.UseMockStorage),
		zap.String("auth_mode", cfg.AuthMode()),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelService := ""
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, cfg.OTELServiceName, cfg.OTELEndpoint); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			otelService = cfg.OTELServiceName
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	var b *backend
	if cfg.UseMockStorage {
		b, err = newMockBackend(ctx, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_start_mock_storage", zap.Error(err))
		}
		zapLogger.Warn("using_mock_storage")
	} else {
		b, err = newPostgresBackend(ctx, cfg.DatabaseURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
		}
		zapLogger.Info("connected_to_database")
	}
	defer func() {
		if err := b.close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	authn, err := newAuthenticator(cfg, b, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_configure_authentication", zap.Error(err))
	}

	svc := calendar.NewService(b.schedules, b.journeys, b.conflicts, b.todos,
		calendar.NewPreferencesService(b.preferences, zapLogger), zapLogger)
	syncer := progress.NewService(b.paths, b.todos, zapLogger)
	assistant := ai.NewAssistantService(newAIProvider(cfg, zapLogger, debugMode), svc,
		ai.NewChatService(ai.DefaultMaxSessionMessages), zapLogger)

	// Mock mode runs jobs in process; otherwise the worker consumes what the API enqueues
	var jobQueue queue.JobQueue
	var dlq queue.DLQPurger
	if cfg.UseMockStorage {
		memQueue := queue.NewMemoryQueue(mockQueueSize, zapLogger)
		jobQueue, dlq = memQueue, memQueue
		startInProcessWorker(ctx, cfg, memQueue, syncer, svc, zapLogger)
	} else {
		rabbit, err := queue.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		jobQueue, dlq = rabbit, rabbit
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_job_queue", zap.Error(err))
		}
	}()

	// Redis-backed rate limiting only outside mock mode
	var redisClient *redis.Client
	var rateLimiter *middleware.RateLimitReloader
	if !cfg.UseMockStorage {
		redisClient, err = middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")

		store, err := middleware.NewLimiterStore(redisClient)
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
		}
		rateLimiter = middleware.NewRateLimitReloader(store, b.ratelimit, cfg.RateLimit, zapLogger, reloadInterval)
	}

	deps := routerDeps{
		backend:     b,
		calendar:    svc,
		progress:    syncer,
		assistant:   assistant,
		authn:       authn,
		jobQueue:    jobQueue,
		redis:       redisClient,
		enableHSTS:  cfg.EnableHSTS,
		otelService: otelService,
	}
	if rateLimiter != nil {
		deps.rateLimit = rateLimiter.Middleware()
		go rateLimiter.Start(ctx)
	}
	router, err := newRouter(deps, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_build_router", zap.Error(err))
	}

	// CORS wraps the whole router so preflights are answered before routing
	corsReloader := middleware.NewCORSReloader(b.cors, cfg.FrontendURL, zapLogger, reloadInterval)
	handler := corsReloader.Middleware()(router)
	go corsReloader.Start(ctx)

	gc := queue.NewGarbageCollector(dlq, dlqGCInterval, dlqGCRetention, zapLogger)
	go func() {
		if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   assistantTimeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}
	zapLogger.Info("server_exited")
}

// startInProcessWorker consumes the mock-mode queue and schedules the missed sweep, standing
// in for cmd/worker
func startInProcessWorker(ctx context.Context, cfg *config.Config, jobQueue *queue.MemoryQueue, syncer *progress.Service, svc *calendar.Service, log *zap.Logger) {
	processor := workers.NewJobProcessor(syncer, svc, jobQueue, log)
	processor.SetLocation(cfg.SweepLocation())
	go func() {
		if err := processor.Run(ctx, jobQueue, cfg.RabbitMQPrefetch); err != nil {
			log.Error("in_process_worker_stopped", zap.Error(err))
		}
	}()

	sweep, err := workers.NewMissedSweepScheduler(cfg.MissedSweepCron, cfg.SweepLocation(), jobQueue, log)
	if err != nil {
		log.Error("missed_sweep_disabled", zap.Error(err))
		return
	}
	sweep.Start()
	go func() {
		<-ctx.Done()
		sweep.Stop()
	}()
	log.Info("in_process_worker_started", zap.String("missed_sweep_cron", cfg.MissedSweepCron))
}
