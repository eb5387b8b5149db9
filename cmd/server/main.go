package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/api"
	"github.com/wuwenbin0122/tasklist/internal/app"
	"github.com/wuwenbin0122/tasklist/internal/metrics"
	"github.com/wuwenbin0122/tasklist/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger := utils.MustNewLogger(cfg.Logging)
	defer logger.Sync()

	ctx := context.Background()

	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open backends", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(context.Background()); err != nil {
			logger.Warn("close backends", zap.Error(err))
		}
	}()

	services, err := app.NewServices(cfg, backends, logger)
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}

	scheduler, err := app.ScheduleCleanup(services.Todos, cfg.Cleanup, logger)
	if err != nil {
		logger.Fatal("failed to schedule cleanup", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Start()
		logger.Info("anonymous todo cleanup scheduled", zap.String("schedule", cfg.Cleanup.Schedule))
	}

	router := setupRouter(services, logger)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server crashed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}

func setupRouter(services *app.Services, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(api.Recovery(logger), api.RequestLogger(logger.Named("http")), metrics.Middleware())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api.NewHandler(services.Auth, services.Todos, services.Admin, logger).RegisterRoutes(router)

	return router
}
