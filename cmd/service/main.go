package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-query-service/internal/cache"
	"github.com/kjstillabower/weather-query-service/internal/client"
	"github.com/kjstillabower/weather-query-service/internal/config"
	"github.com/kjstillabower/weather-query-service/internal/database"
	httphandler "github.com/kjstillabower/weather-query-service/internal/http"
	"github.com/kjstillabower/weather-query-service/internal/observability"
	"github.com/kjstillabower/weather-query-service/internal/ratelimit"
	"github.com/kjstillabower/weather-query-service/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		logger.Fatal("redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	pingCancel()
	defer func() { _ = redisClient.Close() }()
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	counterStore := ratelimit.NewRedisCounterStore(redisClient)
	limiter := ratelimit.NewLimiter(counterStore, cfg.RateLimit, cfg.RatePeriod)

	health := &httphandler.HealthChecks{Counter: counterStore.Ping}

	var temperatureCache cache.Cache
	var db *database.DB
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "postgres":
		db, err = database.Connect(cfg.Database.ConnectionString())
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer db.Close()
		schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := db.EnsureSchema(schemaCtx); err != nil {
			schemaCancel()
			logger.Fatal("schema", zap.Error(err))
		}
		schemaCancel()
		temperatureCache = cache.NewPostgresCache(db, cfg.CacheDuration)
		health.Cache = db.Ping
		logger.Info("cache backend: postgres", zap.String("db", cfg.Database.DBName))
	case "memcached":
		mc := cache.NewMemcachedCache(cfg.Memcached.Addrs, cfg.CacheDuration, cfg.Memcached.Timeout)
		memcacheCloser = mc
		temperatureCache = mc
		health.Cache = mc.Ping
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.Memcached.Addrs))
	default:
		temperatureCache = cache.NewInMemoryCache(cfg.CacheDuration)
		logger.Info("cache backend: in_memory")
	}

	weatherClient := client.NewHTTPWeatherClient(cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	weatherService := service.NewWeatherService(limiter, temperatureCache, weatherClient, logger)
	handler := httphandler.NewHandler(weatherService, health, logger)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	weatherRouter := router.PathPrefix("/weather").Subrouter()
	weatherRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	weatherRouter.HandleFunc("", handler.GetWeather).Methods("GET")
	weatherRouter.HandleFunc("", handler.PostWeather).Methods("POST")
	router.NotFoundHandler = http.HandlerFunc(httphandler.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(httphandler.NotFound)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
