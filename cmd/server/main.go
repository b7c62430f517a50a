package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"hdcn-access/internal/admin"
	"hdcn-access/internal/auth"
	"hdcn-access/internal/config"
	"hdcn-access/internal/engine"
	"hdcn-access/internal/logging"
	"hdcn-access/internal/metadata"
	"hdcn-access/internal/metrics"
	"hdcn-access/internal/params"
	"hdcn-access/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.Init(cfg.Log)
	defer logging.Sync()
	log.Info("config loaded",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("database", cfg.Database.Enabled),
		zap.Bool("redis", cfg.Redis.Enabled()),
		zap.String("remote_parameters", cfg.Parameters.RemoteURL))

	// 2. Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(promRegistry)

	// 3. Registry and field catalog
	reg := metadata.NewRegistry()
	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal("failed to load field catalog", zap.Error(err))
	}
	reg.LoadCatalog(catalog)
	log.Info("field catalog loaded",
		zap.Int("fields", len(catalog.Fields)), zap.Int("contexts", len(catalog.Contexts)))

	// 4. Optional database
	var db *store.Store
	if cfg.Database.Enabled {
		db, err = store.New(ctx, cfg.Database)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Bootstrap(ctx); err != nil {
			log.Fatal("failed to bootstrap parameter tables", zap.Error(err))
		}
		log.Info("database ready")
	}

	// 5. Function-permission parameters
	paramOpts := []params.Option{
		params.WithRegistry(reg),
		params.WithMetrics(m),
		params.WithLogger(log.Named("params")),
		params.WithMemoryTTL(cfg.Parameters.CacheCapacity, cfg.Parameters.CacheTTL),
	}
	var source params.Source
	switch {
	case db != nil:
		pg := params.NewPostgresSource(db)
		source = pg
		paramOpts = append(paramOpts, params.WithWriter(pg))
		if cfg.Parameters.RemoteURL != "" {
			log.Warn("parameters.remote_url ignored, the database is the parameter source")
		}
	case cfg.Parameters.RemoteURL != "":
		source = params.NewHTTPSource(cfg.Parameters.RemoteURL, cfg.Parameters.FetchTimeout)
	}
	if cfg.Redis.Enabled() {
		cache, err := params.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.KeyPrefix)
		if err != nil {
			log.Warn("redis unavailable, running without persistent parameter cache", zap.Error(err))
		} else {
			defer cache.Close()
			paramOpts = append(paramOpts, params.WithCache(cache))
		}
	}
	paramStore := params.New(source, paramOpts...)
	log.Info("function permissions loaded", zap.String("tier", paramStore.Load(ctx)))

	var scheduler *params.Scheduler
	if source != nil && cfg.Parameters.RefreshCron != "" {
		scheduler = params.NewScheduler(paramStore, log.Named("params"), cfg.Parameters.FetchTimeout)
		if err := scheduler.Start(cfg.Parameters.RefreshCron); err != nil {
			log.Fatal("invalid parameters.refresh_cron", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	// 6. Decision engine
	decider := engine.NewDecider(reg, engine.WithMetrics(m), engine.WithLogger(log.Named("decision")))
	fields := engine.NewFieldResolver(catalog,
		engine.WithFieldMetrics(m), engine.WithFieldLogger(log.Named("fields")))

	// 7. Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler(log),
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(m.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", m.Handler())

	// 8. Routes
	if cfg.Auth.IssueTokens {
		log.Warn("auth.issue_tokens is enabled; /api/auth/token signs tokens for any caller")
		auth.RegisterTokenRoutes(app, auth.NewTokenHandler(cfg.Auth.JWTSecret, auth.AccessTokenTTL))
	}

	authMW := auth.Middleware(auth.MiddlewareConfig{
		Secret: cfg.Auth.JWTSecret,
		Verify: cfg.Auth.VerifyTokens,
	})
	engine.RegisterDecisionRoutes(app, engine.NewHandler(decider, fields), authMW)

	var history admin.HistoryReader
	if db != nil {
		history = db
	}
	adminHandler := admin.NewHandler(paramStore, history, decider, log.Named("admin"))
	admin.RegisterAdminRoutes(app, adminHandler, authMW, auth.RequireUser())

	// 9. Serve until signalled
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("starting server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}

func loadCatalog(path string) (*metadata.Catalog, error) {
	if path == "" {
		return metadata.DefaultCatalog()
	}
	return metadata.LoadCatalogFile(path)
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *engine.AppError
		if errors.As(err, &appErr) {
			return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			appErr = engine.FromFiberError(fiberErr.Code, fiberErr.Message)
			return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
		}

		log.Error("unhandled error",
			zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(engine.ErrorResponse{
			Error: &engine.AppError{
				Code:    "INTERNAL_ERROR",
				Message: "Internal server error",
			},
		})
	}
}
