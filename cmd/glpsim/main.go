// Command glpsim serves the Monte Carlo experiment HTTP control surface:
// configuracion CRUD, the single-simulation endpoint, and the full
// /v1/monte-carlo lifecycle backed by MySQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	configapp "github.com/aysen-hub/glpsim/internal/configuracion/application"
	confmysql "github.com/aysen-hub/glpsim/internal/configuracion/infrastructure/persistence/mysql"
	confhttp "github.com/aysen-hub/glpsim/internal/configuracion/interfaces/http"
	mcapp "github.com/aysen-hub/glpsim/internal/montecarlo/application"
	mcmysql "github.com/aysen-hub/glpsim/internal/montecarlo/infrastructure/persistence/mysql"
	mchttp "github.com/aysen-hub/glpsim/internal/montecarlo/interfaces/http"
	simhttp "github.com/aysen-hub/glpsim/internal/simulacion/interfaces/http"
	"github.com/aysen-hub/glpsim/pkg/config"
	"github.com/aysen-hub/glpsim/pkg/db"
	"github.com/aysen-hub/glpsim/pkg/logger"
	"github.com/aysen-hub/glpsim/pkg/metrics"
	"github.com/aysen-hub/glpsim/pkg/middleware"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/glpsim/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("init logger: %v", err))
	}

	ctx := context.Background()
	logger.Info(ctx, "starting glpsim", "environment", cfg.Environment, "version", cfg.Version)

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "connect database", "error", err)
	}

	if err := database.AutoMigrate(
		&confmysql.ConfiguracionModel{},
		&mcmysql.ExperimentModel{},
		&mcmysql.ReplicaModel{},
	); err != nil {
		logger.Fatal(ctx, "migrate database", "error", err)
	}

	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		logger.Fatal(ctx, "register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Error(ctx, "metrics server failed to start", "error", err)
		}
	}

	confRepo := confmysql.NewRepository(database.DB)
	confService := configapp.NewService(confRepo)

	expRepo := mcmysql.NewExperimentRepository(database.DB)
	executor := mcapp.NewExecutor(expRepo, confRepo, m)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinCORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(m.GinMiddleware())

	v1 := router.Group("/v1")
	confhttp.NewHandler(confService).RegisterRoutes(v1)
	mchttp.NewHandler(executor, confService).RegisterRoutes(v1)
	simhttp.NewHandler().RegisterRoutes(v1)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "graceful shutdown failed", "error", err)
	}
	if err := database.Close(); err != nil {
		logger.Error(ctx, "closing database", "error", err)
	}
}
