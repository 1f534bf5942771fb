// Package main applies or rolls back database migrations.
package main

import (
	"database/sql"
	"errors"
	"flag"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/lib/pq"

	"github.com/trcstyle/backend/internal/config"
	"github.com/trcstyle/backend/internal/platform/migrations"
	"github.com/trcstyle/backend/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "up applies all pending migrations, down rolls back one")
	flag.Parse()

	log := logger.NewDefault("migrate")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("open postgres")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("ping postgres")
	}

	m, err := migrations.New(db)
	if err != nil {
		log.WithError(err).Fatal("build migrator")
	}

	switch *direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	default:
		log.WithField("direction", *direction).Fatal("direction must be up or down")
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.WithError(err).Fatal("run migrations")
	}
	log.WithField("direction", *direction).Info("migrations complete")
}
