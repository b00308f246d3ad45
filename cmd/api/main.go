package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/sitescout/internal/adapters/earthengine"
	"github.com/samirrijal/sitescout/internal/adapters/http"
	natsadapter "github.com/samirrijal/sitescout/internal/adapters/nats"
	"github.com/samirrijal/sitescout/internal/adapters/postgres"
	temporaladapter "github.com/samirrijal/sitescout/internal/adapters/temporal"
	"github.com/samirrijal/sitescout/internal/adapters/valkey"
	"github.com/samirrijal/sitescout/internal/core/ports"
	"github.com/samirrijal/sitescout/internal/core/usecases"
	"github.com/samirrijal/sitescout/internal/pkg/config"
	"github.com/samirrijal/sitescout/internal/pkg/logging"
	"github.com/samirrijal/sitescout/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("sitescout-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireEarthEngine(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Earth Engine
	engine, err := earthengine.Open(earthengine.Settings{
		BaseURL:         cfg.EarthEngine.BaseURL,
		Project:         cfg.EarthEngine.Project,
		AccessToken:     cfg.EarthEngine.AccessToken,
		CredentialsFile: cfg.EarthEngine.CredentialsFile,
		Timeout:         cfg.EarthEngine.TimeoutDuration(),
	})
	if err != nil {
		log.Fatalf("earthengine: %v", err)
	}

	deps := &http.Dependencies{
		Engine:  engine,
		Version: version,
	}

	// Database (optional: without it there is no analysis history)
	var repo ports.AnalysisRepository
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		slog.Warn("database unavailable, analysis history disabled", "error", err)
	} else {
		defer db.Close()
		go db.MonitorPool(ctx, 15*time.Second)
		repo = postgres.NewAnalysisRepo(db)
		deps.DB = db
	}

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, "sitescout")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)

		// Without JetStream the WebSocket relay can still subscribe on a plain connection
		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
			deps.NATS = natsConn
		}
	} else {
		defer pub.Close()
		publisher = pub
		deps.NATS = pub.Conn()
	}

	// Temporal (optional: without it POST /v1/analyses returns 503)
	var scheduler ports.AnalysisScheduler
	tc, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		slog.Warn("temporal unavailable, background analyses disabled", "error", err)
	} else {
		defer tc.Close()
		scheduler = temporaladapter.NewScheduler(tc, cfg.Temporal.TaskQueue)
	}

	// Use cases
	deps.Sites = usecases.NewSiteService(engine, cache, usecases.SiteOptions{
		Scale:           cfg.Sampling.Scale,
		NumPixels:       cfg.Sampling.NumPixels,
		CacheTTLSeconds: cfg.Cache.TTLSeconds,
	})
	deps.Analyses = usecases.NewAnalysisService(deps.Sites, repo, publisher, scheduler)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "SiteScout API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "project", cfg.EarthEngine.Project)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Remote analyses can take a while; give them up to the engine timeout.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.EarthEngine.TimeoutDuration()+5*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
