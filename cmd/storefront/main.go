package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/jyotishankar04/watch-store-server/internal/gateway"
	httptransport "github.com/jyotishankar04/watch-store-server/internal/http"
	"github.com/jyotishankar04/watch-store-server/internal/reconcile"
	"github.com/jyotishankar04/watch-store-server/internal/repository"
	"github.com/jyotishankar04/watch-store-server/internal/service"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	MigrationsPath string

	GatewayBaseURL     string
	GatewayMerchantID  string
	GatewaySaltKey     string
	GatewaySaltIndex   string
	GatewayRedirectURL string
	GatewayCallbackURL string

	KafkaBrokers []string
	KafkaTopic   string
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		dbPort = 5432
	}
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         dbPort,
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "watchstore"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),

		GatewayBaseURL:     getEnv("GATEWAY_BASE_URL", "https://api-preprod.gateway.example.com/apis/hermes"),
		GatewayMerchantID:  getEnv("GATEWAY_MERCHANT_ID", ""),
		GatewaySaltKey:     getEnv("GATEWAY_SALT_KEY", ""),
		GatewaySaltIndex:   getEnv("GATEWAY_SALT_INDEX", "1"),
		GatewayRedirectURL: getEnv("GATEWAY_REDIRECT_URL", "http://localhost:3000/payment/redirect"),
		GatewayCallbackURL: getEnv("GATEWAY_CALLBACK_URL", "http://localhost:8080/api/v1/orders/payment-status"),

		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "watchstore-orders"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations completed")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(registry)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.GatewayBaseURL,
		MerchantID:  cfg.GatewayMerchantID,
		SaltKey:     cfg.GatewaySaltKey,
		SaltIndex:   cfg.GatewaySaltIndex,
		RedirectURL: cfg.GatewayRedirectURL,
		CallbackURL: cfg.GatewayCallbackURL,
	}, logger)

	placementService := service.NewPlacementService(repo, gatewayClient, logger, metrics)
	cartService := service.NewCartService(repo, logger)

	orderHandler := httptransport.NewOrderHandler(placementService, cfg.RequestTimeout)
	cartHandler := httptransport.NewCartHandler(cartService, cfg.RequestTimeout)
	router := httptransport.NewRouter(orderHandler, cartHandler, cfg.RequestTimeout)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", otelhttp.NewHandler(router, "watch-store-server"))

	publisher := reconcile.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
	defer publisher.Close()

	poller := reconcile.NewPoller(repo, placementService, publisher, logger)
	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	go poller.Run(pollerCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stopPoller()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
