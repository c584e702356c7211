package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config collects all env-driven settings in one place. Per-operation gateway
// policies are built from these defaults in routes; an endpoint may still
// override limit/window at its call site.
type Config struct {
	Port           string
	AllowedOrigins string
	BodyLimitBytes int

	// Coarse per-IP limiter applied to all routes (Fiber limiter middleware).
	GlobalRateMax    int
	GlobalRateWindow time.Duration

	// Per-subject fixed-window budgets for guarded mutations.
	MutationLimit  int
	MutationWindow time.Duration
	CancelLimit    int
	CancelWindow   time.Duration

	// Idempotency coordinator tuning.
	IdempotencyTTL     time.Duration
	InFlightTimeout    time.Duration
	MaxCachedBodyBytes int

	// Optional shared counter backend. Empty means in-process counters.
	RedisAddr string
}

// Load reads .env (best effort) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	bodyLimit := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimit <= 0 {
		bodyLimit = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	return &Config{
		Port:           envStr("PORT", "8080"),
		AllowedOrigins: envStr("ALLOWED_ORIGINS", "*"),
		BodyLimitBytes: bodyLimit,

		GlobalRateMax:    envInt("RATE_LIMIT_MAX", 60),
		GlobalRateWindow: time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		MutationLimit:  envInt("MUTATION_LIMIT", 30),
		MutationWindow: time.Duration(envInt("MUTATION_WINDOW_SECONDS", 60)) * time.Second,
		CancelLimit:    envInt("CANCEL_LIMIT", 5),
		CancelWindow:   time.Duration(envInt("CANCEL_WINDOW_SECONDS", 3600)) * time.Second,

		IdempotencyTTL:     time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", 24)) * time.Hour,
		InFlightTimeout:    time.Duration(envInt("IDEMPOTENCY_INFLIGHT_SECONDS", 30)) * time.Second,
		MaxCachedBodyBytes: envInt("IDEMPOTENCY_MAX_BODY_BYTES", 64*1024),

		RedisAddr: os.Getenv("REDIS_ADDR"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
