// Package main runs the background job worker: queue consumption plus the
// scheduled catalog refresh.
package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/job"
	"github.com/trcstyle/backend/internal/app/metrics"
	"github.com/trcstyle/backend/internal/app/services/importer"
	"github.com/trcstyle/backend/internal/app/services/stylist"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/internal/app/storage/memory"
	"github.com/trcstyle/backend/internal/app/storage/postgres"
	"github.com/trcstyle/backend/internal/app/system"
	"github.com/trcstyle/backend/internal/cache"
	"github.com/trcstyle/backend/internal/config"
	"github.com/trcstyle/backend/internal/platform/migrations"
	"github.com/trcstyle/backend/internal/queue"
	"github.com/trcstyle/backend/pkg/logger"
)

func main() {
	log := logger.NewDefault("worker")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		users   storage.UserStore
		items   storage.ItemStore
		outfits storage.OutfitStore
		jobs    storage.JobStore
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(cfg.DatabaseURL, cfg.DBMaxOpen, cfg.DBMaxIdle)
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer db.Close()
		if err := migrations.Apply(ctx, db.DB); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}
		store := postgres.New(db)
		users, items, outfits, jobs = store, store, store, store
	} else {
		log.Warn("DATABASE_URL not set; using the in-memory store")
		mem := memory.New()
		users, items, outfits, jobs = mem, mem, mem, mem
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Fatal("connect redis")
	}
	defer redisClient.Close()
	jobQueue := queue.New(redisClient, "")

	importerSvc := importer.New(items, jobs, jobQueue, importer.NewClient(nil), log)
	stylistSvc := stylist.New(items, outfits, users, jobs, jobQueue, log)

	worker := queue.NewWorker(jobQueue, jobs, cfg.WorkerConcurrency, log)
	worker.Register(job.KindCatalogImport, instrument(job.KindCatalogImport, importerSvc.RunImport))
	worker.Register(job.KindOutfitGenerate, instrument(job.KindOutfitGenerate, stylistSvc.RunGenerate))

	manager := system.NewManager()
	for _, svc := range []system.Service{
		worker,
		importer.NewRefresher(importerSvc, cfg.RefreshSchedule, log),
	} {
		if err := manager.Register(svc); err != nil {
			log.WithError(err).Fatal("register service")
		}
	}

	if err := manager.Start(ctx); err != nil {
		log.WithError(err).Fatal("start worker")
	}
	log.Info("worker running")

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := manager.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("worker shutdown")
	}
}

// instrument wraps a job handler with execution metrics.
func instrument(kind job.Kind, h queue.Handler) queue.Handler {
	return func(ctx context.Context, j job.Job) (json.RawMessage, error) {
		start := time.Now()
		raw, err := h(ctx, j)
		metrics.RecordJobRun(string(kind), time.Since(start), err == nil)
		return raw, err
	}
}
