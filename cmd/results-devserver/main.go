package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/results-app/api/swagger"
	"github.com/noah-isme/results-app/internal/handler"
	"github.com/noah-isme/results-app/internal/middleware"
	"github.com/noah-isme/results-app/internal/service"
	"github.com/noah-isme/results-app/pkg/config"
	"github.com/noah-isme/results-app/pkg/jobs"
	"github.com/noah-isme/results-app/pkg/logger"
	corsmiddleware "github.com/noah-isme/results-app/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/results-app/pkg/middleware/requestid"
)

// @title Results API
// @version 1.0.0
// @description Development server for the results client
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	stores, err := openStores(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer stores.Close()

	metrics := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	if stores.cache != nil {
		cacheRepo = stores.cache
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)
	authSvc := service.NewAuthService(stores.accounts, stores.crawler, stores.results, nil, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	crawlerSvc := service.NewCrawlerService(stores.crawler, stores.results, cacheSvc, metrics, nil, logr)
	resultsSvc := service.NewResultsService(stores.results, cacheSvc, logr)

	queue := jobs.NewQueue(service.CrawlJobType, crawlerSvc.HandleCrawl, jobs.QueueConfig{
		Workers:    cfg.Crawler.Workers,
		MaxRetries: cfg.Crawler.MaxRetries,
		RetryDelay: cfg.Crawler.RetryDelay,
		Logger:     logr,
		Done:       crawlerSvc.CrawlDone,
	})
	queue.Start(ctx)
	defer queue.Stop()
	crawlerSvc.SetQueue(queue)

	metricsHandler := handler.NewMetricsHandler(metrics, cfg.Database.Driver, queue.Pending)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.Server.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.Server.APIPrefix), handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Results: handler.NewResultsHandler(resultsSvc),
		Crawler: handler.NewCrawlerHandler(crawlerSvc),
	}, middleware.AccessToken(authSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("storage", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
