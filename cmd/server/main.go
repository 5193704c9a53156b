package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incorpo/config"
	"incorpo/internal/database"
	"incorpo/internal/metrics"
	"incorpo/internal/router"
	"incorpo/pkg/cloudinary"
	"incorpo/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log.Level)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := database.SeedAdmin(db, config.LoadAdminSeed()); err != nil {
		log.Warn("admin seed failed", "error", err)
	}

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Error("cloudinary init failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Info("receipt uploads disabled: set CLOUDINARY_CLOUD_NAME to enable")
	}

	engine := router.Setup(cfg, db, cloud, log, metrics.New())
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
