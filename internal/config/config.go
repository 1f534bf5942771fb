// Package config loads runtime configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config carries every runtime setting of the API server and worker.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR,default=:8000" description:"address the API server binds to"`

	DatabaseURL string `env:"DATABASE_URL,optional" description:"Postgres connection string; empty runs on the in-memory store"`
	DBMaxOpen   int    `env:"DB_MAX_OPEN,default=20" description:"maximum open DB connections"`
	DBMaxIdle   int    `env:"DB_MAX_IDLE,default=5" description:"maximum idle DB connections"`

	RedisAddr     string `env:"REDIS_ADDR,optional" description:"Redis address; empty disables cache, blacklist and job queue"`
	RedisPassword string `env:"REDIS_PASSWORD,optional"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	SecretKey                string `env:"SECRET_KEY,default=dev-secret-change-me" description:"JWT signing secret"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES,default=60"`
	RefreshTokenExpireDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS,default=14"`

	AdminEmails          string `env:"ADMIN_EMAILS,optional" description:"comma-separated emails granted admin access"`
	AdminDefaultEmail    string `env:"ADMIN_DEFAULT_EMAIL,optional" description:"seed admin account email"`
	AdminDefaultPassword string `env:"ADMIN_DEFAULT_PASSWORD,optional" description:"seed admin account password"`

	UploadDir   string `env:"UPLOAD_DIR,default=uploads" description:"directory for uploaded files"`
	CORSOrigins string `env:"CORS_ORIGINS,optional" description:"comma-separated allowed origins; empty allows all"`

	AuthRatePerSecond int `env:"AUTH_RATE_PER_SECOND,default=5" description:"per-client rate limit on auth endpoints"`
	AuthRateBurst     int `env:"AUTH_RATE_BURST,default=10"`

	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=2"`
	RefreshSchedule   string `env:"REFRESH_SCHEDULE,default=@daily" description:"cron spec for the catalog refresh"`
	FeedDomain        string `env:"FEED_DOMAIN,default=ru" description:"default catalog feed domain (ru, kz, by)"`
}

// Load decodes the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AccessTTL is the access token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTTL is the refresh token lifetime.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// AdminEmailList splits the configured admin emails.
func (c Config) AdminEmailList() []string {
	return splitList(c.AdminEmails)
}

// CORSOriginList splits the configured CORS origins.
func (c Config) CORSOriginList() []string {
	return splitList(c.CORSOrigins)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
