package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/sitescout/internal/adapters/earthengine"
	natsadapter "github.com/samirrijal/sitescout/internal/adapters/nats"
	"github.com/samirrijal/sitescout/internal/adapters/postgres"
	temporaladapter "github.com/samirrijal/sitescout/internal/adapters/temporal"
	"github.com/samirrijal/sitescout/internal/adapters/valkey"
	"github.com/samirrijal/sitescout/internal/core/ports"
	"github.com/samirrijal/sitescout/internal/core/usecases"
	"github.com/samirrijal/sitescout/internal/pkg/config"
	"github.com/samirrijal/sitescout/internal/pkg/logging"
	"github.com/samirrijal/sitescout/internal/pkg/telemetry"
	"github.com/samirrijal/sitescout/internal/workflows"
)

func main() {
	cfg, err := config.Load("sitescout-analyzer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireEarthEngine(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

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
	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := engine.Verify(pingCtx); err != nil {
		slog.Warn("earthengine ping failed, activities will retry", "error", err)
	}
	pingCancel()

	// The worker updates records created by the API, so the database is required here.
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.MonitorPool(ctx, 15*time.Second)

	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, "sitescout")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, analysis events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	sites := usecases.NewSiteService(engine, cache, usecases.SiteOptions{
		Scale:           cfg.Sampling.Scale,
		NumPixels:       cfg.Sampling.NumPixels,
		CacheTTLSeconds: cfg.Cache.TTLSeconds,
	})
	analyses := usecases.NewAnalysisService(sites, postgres.NewAnalysisRepo(db), publisher, nil)

	c, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 8,
	})

	w.RegisterWorkflow(workflows.SiteAnalysisWorkflow)
	w.RegisterActivity(&workflows.AnalysisActivities{Analyses: analyses})

	slog.Info("analyzer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
