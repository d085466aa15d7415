package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/handlers"
	"yatube/internal/logging"
	"yatube/internal/router"
	"yatube/internal/services"
	"yatube/internal/storage"
	"yatube/web"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.L().Fatal().Err(err).Msg("load config")
	}

	logger := logging.Init(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.GinMode)

	// Initialize Database
	gdb, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("init storage")
	}

	mail := services.NewMailService(cfg.Mail, cfg.SiteName, web.Templates())
	deps, err := handlers.NewDeps(gdb, store, mail, cfg.SiteURL, cfg.SiteName)
	if err != nil {
		logger.Fatal().Err(err).Msg("init handlers")
	}
	r, err := router.New(deps, router.Options{
		SessionSecret: cfg.SessionSecret,
		SecureCookie:  strings.HasPrefix(cfg.SiteURL, "https://"),
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("yatube server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	mail.Wait()

	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("server exited")
}
