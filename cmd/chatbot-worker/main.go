package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vietclinic/chatbot-service/cmd/mainconfig"
	"github.com/vietclinic/chatbot-service/internal/clinicapi"
	appconfig "github.com/vietclinic/chatbot-service/internal/config"
	"github.com/vietclinic/chatbot-service/internal/conversation"
	"github.com/vietclinic/chatbot-service/internal/observability/metrics"
	"github.com/vietclinic/chatbot-service/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := conversation.NewSessionStore(ctx, rdb, logger.Named("sessions"),
		conversation.WithHistoryTTL(cfg.ChatHistoryTTL),
		conversation.WithCacheSize(cfg.SessionCacheSize),
	)

	model, err := conversation.NewGeminiModelClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("failed to create Gemini client", "error", err)
		os.Exit(1)
	}
	defer model.Close()

	api := clinicapi.NewClient(cfg.APIBaseURL, cfg.APIToken,
		clinicapi.WithLogger(logger.Named("clinicapi")))

	inbound, outbound, err := buildQueues(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up queues", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(registry)

	driver := conversation.NewDriver(model, store, logger.Named("driver"),
		conversation.WithSessionLimit(cfg.SessionCacheSize))
	router := conversation.NewRouter(api, logger.Named("router"))
	worker := conversation.NewWorker(driver, router, inbound, outbound, logger.Named("worker"),
		conversation.WithWorkerCount(cfg.WorkerCount),
		conversation.WithMetrics(chatMetrics),
	)

	worker.Start(ctx)
	logger.Info("chatbot worker started",
		"workers", cfg.WorkerCount,
		"model", cfg.GeminiModel,
		"persistent_history", store.Persistent(),
	)

	httpServer := startHTTPServer(cfg, registry, store, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down chatbot worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("chatbot worker stopped")
	case <-shutdownCtx.Done():
		logger.Error("chatbot worker shutdown timed out", "error", shutdownCtx.Err())
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", "error", err)
	}
	if err := rdb.Close(); err != nil {
		logger.Warn("redis close failed", "error", err)
	}
}

// buildQueues returns the inbound and outbound transports. With
// USE_MEMORY_QUEUE set the worker runs self-contained, which is only useful
// for local smoke testing.
func buildQueues(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.Queue, conversation.Queue, error) {
	if cfg.UseMemoryQueue {
		logger.Warn("using in-memory queues, messages will not survive restarts")
		return conversation.NewMemoryQueue(0), conversation.NewMemoryQueue(0), nil
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	client := sqs.NewFromConfig(awsCfg)
	return conversation.NewSQSQueue(client, cfg.InboundQueueURL),
		conversation.NewSQSQueue(client, cfg.OutboundQueueURL),
		nil
}

func startHTTPServer(cfg *appconfig.Config, registry *prometheus.Registry, store *conversation.SessionStore, logger *logging.Logger) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":             "ok",
			"persistent_history": store.Persistent(),
		})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
		}
	}()
	return server
}
