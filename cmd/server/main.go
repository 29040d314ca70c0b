package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/relevance-finder/api/handlers"
	"github.com/feichai0017/relevance-finder/api/routes"
	"github.com/feichai0017/relevance-finder/config"
	"github.com/feichai0017/relevance-finder/internal/service/relevance"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

func main() {
	appCfg := config.GetAppConfig()

	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithEncoding(appCfg.LogEncoding),
		logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	svc, closeService, err := relevance.GetService(log)
	if err != nil {
		log.Fatal("Failed to initialize relevance service", logger.Error(err))
	}
	defer func() {
		if err := closeService(); err != nil {
			log.Error("Failed to release resources", logger.Error(err))
		}
	}()

	h := handlers.NewHandlers(svc, svc, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, log)

	srv := &http.Server{
		Addr:    appCfg.ServerAddr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", appCfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
