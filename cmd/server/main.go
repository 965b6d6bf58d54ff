package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentiment-desk/internal/artifact"
	"sentiment-desk/internal/cache"
	"sentiment-desk/internal/config"
	"sentiment-desk/internal/dashboard"
	"sentiment-desk/internal/handler"
	"sentiment-desk/internal/notify"
	"sentiment-desk/pkg/tracing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "sentiment-desk/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	startTelegramBotFunc   = notify.StartBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Sentiment Desk API
// @version         1.0
// @description     Read-only access to headline sentiment and price artifacts produced by the enrichment pipeline.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	config.ConfigureLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, "server")
	if err != nil {
		log.Fatal("failed to initialize tracer", "err", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("error shutting down tracer provider", "err", err)
		}
	}()

	store := artifact.NewStore(cfg.DataDir, tracer)

	// The cache is optional: without Redis every request reads the artifacts.
	var views handler.ViewCache
	if cfg.RedisURL != "" {
		client, err := initRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, dashboard cache disabled", "err", err)
		} else {
			defer client.Close()
			views = cache.NewViewCache(client, time.Duration(cfg.DashboardCacheSecs)*time.Second, tracer)
		}
	}

	load := func(ctx context.Context, ticker string) (*dashboard.View, error) {
		return dashboard.Load(ctx, store, ticker)
	}
	if b, err := startTelegramBotFunc(cfg.TelegramBotToken, load); err != nil {
		log.Warn("telegram bot disabled", "err", err)
	} else if b != nil {
		defer b.Stop()
	}

	h := newHandlerFunc(tracer, store, views)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r, cfg.DashboardAPIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "data_dir", cfg.DataDir)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", "err", err)
	}

	log.Info("server exiting")
}
