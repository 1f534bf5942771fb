// Package main runs the API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	app "github.com/trcstyle/backend/internal/app"
	"github.com/trcstyle/backend/internal/app/httpapi"
	"github.com/trcstyle/backend/internal/app/metrics"
	"github.com/trcstyle/backend/internal/app/storage/postgres"
	"github.com/trcstyle/backend/internal/cache"
	"github.com/trcstyle/backend/internal/config"
	"github.com/trcstyle/backend/internal/middleware"
	"github.com/trcstyle/backend/internal/platform/migrations"
	"github.com/trcstyle/backend/internal/queue"
	"github.com/trcstyle/backend/pkg/logger"
)

func main() {
	log := logger.NewDefault("server")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores := app.Stores{}
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		db, err = postgres.Connect(cfg.DatabaseURL, cfg.DBMaxOpen, cfg.DBMaxIdle)
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer db.Close()
		if err := migrations.Apply(ctx, db.DB); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}
		store := postgres.New(db)
		stores = app.Stores{
			Users:    store,
			Items:    store,
			Outfits:  store,
			Comments: store,
			Cart:     store,
			Jobs:     store,
		}
	} else {
		log.Warn("DATABASE_URL not set; using the in-memory store")
	}

	var (
		redisClient *redis.Client
		revocation  *cache.Cache
		jobQueue    *queue.Queue
	)
	if cfg.RedisAddr != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Fatal("connect redis")
		}
		defer redisClient.Close()
		revocation = cache.New(redisClient)
		jobQueue = queue.New(redisClient, "")
	} else {
		log.Warn("REDIS_ADDR not set; token revocation and async jobs disabled")
	}

	application, err := app.New(stores, app.Options{
		SecretKey:            cfg.SecretKey,
		AccessTTL:            cfg.AccessTTL(),
		RefreshTTL:           cfg.RefreshTTL(),
		AdminEmails:          cfg.AdminEmailList(),
		AdminDefaultEmail:    cfg.AdminDefaultEmail,
		AdminDefaultPassword: cfg.AdminDefaultPassword,
		UploadDir:            cfg.UploadDir,
		Cache:                revocation,
		Queue:                jobQueue,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("build application")
	}

	authMW := middleware.NewAuth(application.Auth, application.Users.IsAdmin, log)
	limiter := middleware.NewRateLimiter(cfg.AuthRatePerSecond, cfg.AuthRateBurst, log)

	var ready []httpapi.ReadyCheck
	if db != nil {
		ready = append(ready, httpapi.ReadyCheck{Name: "postgres", Check: db.PingContext})
	}
	if revocation != nil {
		ready = append(ready, httpapi.ReadyCheck{Name: "redis", Check: revocation.Ping})
	}

	api := httpapi.NewHandler(httpapi.Config{
		App:         application,
		Auth:        authMW,
		AuthLimiter: limiter,
		UploadDir:   cfg.UploadDir,
		Ready:       ready,
		Log:         log,
	})

	root := http.NewServeMux()
	root.Handle("/metrics", metrics.Handler())
	root.Handle("/", middleware.CORS(cfg.CORSOriginList())(api))

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Fatal("start application")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           metrics.InstrumentHandler(root),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("serve http")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application shutdown")
	}
}
