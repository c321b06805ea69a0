package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/haitiwallet/console/libs/health"
	"github.com/haitiwallet/console/libs/httpmiddleware"
	"github.com/haitiwallet/console/libs/kafka"
	"github.com/haitiwallet/console/libs/logging"
	"github.com/haitiwallet/console/libs/metrics"
	"github.com/haitiwallet/console/libs/trace"
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/config"
	"github.com/haitiwallet/console/services/console/internal/fees"
	"github.com/haitiwallet/console/services/console/internal/guard"
	"github.com/haitiwallet/console/services/console/internal/handlers"
	"github.com/haitiwallet/console/services/console/internal/service"
	"github.com/haitiwallet/console/services/console/internal/session"
	"github.com/haitiwallet/console/services/console/internal/state"
	"github.com/haitiwallet/console/services/console/internal/storage"
	"github.com/haitiwallet/console/services/console/internal/views"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.App.LogFormat, cfg.App.LogLevel, cfg.App.ServiceName, cfg.App.Env)
	shutdownTracer, err := trace.InitTracer(cfg.App.ServiceName, cfg.App.Env)
	if err != nil {
		logger.Error("tracer init failed", "error", err)
	} else {
		defer func() {
			_ = shutdownTracer(context.Background())
		}()
	}

	if cfg.App.Env == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	consoleMetrics := service.NewMetrics(registry)
	kafkaMetrics := kafka.NewProducerMetrics(registry)

	ready := health.NewManager(false)

	store, closeStore, err := openStore(cfg, ready)
	if err != nil {
		logger.Error("session store init failed", "store", cfg.Session.Store, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	sess := session.New(store, logger)
	api := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, sess, logger)

	producer, err := auditPublisher(cfg, logger, kafkaMetrics)
	if err != nil {
		logger.Error("kafka producer init failed", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	renderer := views.NewRenderer(views.DefaultRegistry(), fees.Default(), cfg.Payments, cfg.PageSize)
	console := service.New(api, sess, state.NewStore(cfg.FXFallback), renderer, guard.New(cfg.GuardWindow), producer, logger, consoleMetrics, service.Options{
		PublicURL:  cfg.PublicURL,
		AuditTopic: cfg.Audit.Topic,
		StatsDays:  cfg.StatsDays,
	})

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.Backend.Timeout*3)
	if report, err := console.Start(startCtx); err != nil {
		logger.Warn("initial refresh failed", "error", err)
	} else {
		logger.Info("initial refresh", "logged_out", report.LoggedOut, "failed", report.Failed())
	}
	cancelStart()

	handler := handlers.New(console, logger)
	router := gin.New()
	router.Use(httpmiddleware.RequestID())
	router.Use(httpmiddleware.Logger(logger))
	router.Use(httpmiddleware.Recovery(logger))
	router.Use(trace.Middleware(cfg.App.ServiceName))

	router.GET("/healthz", health.LivenessHandler)
	router.GET("/readyz", health.ReadinessHandler(ready))
	router.GET(cfg.App.MetricsPath, gin.WrapH(metrics.Handler(registry)))

	handler.Register(router, cfg.AccessToken)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.App.HTTP.Host, cfg.App.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.App.HTTP.ReadTimeout,
		WriteTimeout: cfg.App.HTTP.WriteTimeout,
		IdleTimeout:  cfg.App.HTTP.IdleTimeout,
	}

	ready.SetReady(true)

	go func() {
		logger.Info("console http starting", "addr", httpServer.Addr, "backend", cfg.Backend.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	waitForShutdown(httpServer, ready, logger)
}

func openStore(cfg *config.Config, ready *health.Manager) (storage.Store, func(), error) {
	switch cfg.Session.Store {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})
		store := storage.NewRedis(client, cfg.Session.Redis.Prefix)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		ready.AddCheck("redis", store.Ping)
		return store, func() { _ = client.Close() }, nil
	default:
		store, err := storage.OpenFile(cfg.Session.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func auditPublisher(cfg *config.Config, logger *slog.Logger, kafkaMetrics *kafka.ProducerMetrics) (kafka.Publisher, error) {
	if len(cfg.Audit.Brokers) == 0 {
		logger.Info("audit brokers not configured, audit events dropped")
		return kafka.NopPublisher{}, nil
	}
	producer, err := kafka.NewSyncProducer(cfg.Audit.Brokers, cfg.Audit.ClientID, logger, kafkaMetrics)
	if err != nil {
		return nil, err
	}
	if cfg.Audit.DLQTopic == "" {
		return producer, nil
	}
	return kafka.NewDLQPublisher(producer, producer, cfg.Audit.DLQTopic, logger), nil
}

func waitForShutdown(httpServer *http.Server, ready *health.Manager, logger *slog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown started")
	ready.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
