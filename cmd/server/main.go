package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/wenwex7981/dynfields/internal/config"
	"github.com/wenwex7981/dynfields/internal/db"
	"github.com/wenwex7981/dynfields/internal/export"
	"github.com/wenwex7981/dynfields/internal/fields"
	"github.com/wenwex7981/dynfields/internal/logger"
	"github.com/wenwex7981/dynfields/internal/middleware"
	"github.com/wenwex7981/dynfields/internal/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := db.RunMigrations(cfg.Database); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	defRepo := repository.NewFieldDefinitionRepository(conn.Pool)
	bagRepo := repository.NewValueBagRepository(conn.Pool)

	fieldService := fields.NewService(defRepo, bagRepo, zlog)
	exportService := export.NewService(defRepo, bagRepo)

	middleware.RegisterMetrics()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	router := chi.NewRouter()
	router.Use(middleware.Logging(zlog))
	router.Use(middleware.Metrics())
	router.Use(corsHandler.Handler)

	router.Mount("/api/fields", fields.NewHTTPHandler(fieldService).Routes())
	router.Mount("/api/export", export.NewHTTPHandler(exportService).Routes())
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := conn.Pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("Starting dynamic fields server", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}
