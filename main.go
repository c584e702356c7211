package main

import (
	"log"

	"touroperator-backend/audit"
	"touroperator-backend/clock"
	"touroperator-backend/config"
	"touroperator-backend/database"
	"touroperator-backend/gateway"
	"touroperator-backend/idempotency"
	"touroperator-backend/middlewares"
	"touroperator-backend/ratelimit"
	"touroperator-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	// ---- Database (public)
	database.Connect()
	database.AutoMigrate()

	// ---- Gateway core: clock, idempotency coordinator, rate counter, audit
	clk := clock.System{}

	coordinator := idempotency.NewCoordinator(
		idempotency.NewGormStore(database.DB),
		clk,
		idempotency.Options{
			TTL:             cfg.IdempotencyTTL,
			InFlightTimeout: cfg.InFlightTimeout,
			MaxBodyBytes:    cfg.MaxCachedBodyBytes,
		},
	)

	var counter ratelimit.Counter
	if cfg.RedisAddr != "" {
		counter = ratelimit.NewRedisCounter(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), clk)
		log.Printf("rate limiting: shared counters via redis at %s", cfg.RedisAddr)
	} else {
		counter = ratelimit.NewMemoryCounter(clk)
	}

	recorder := audit.NewAsync(audit.NewGormRecorder(database.DB), 256)
	defer recorder.Close()

	gw := gateway.New(coordinator, counter, recorder)

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Correlation-ID",
	}))

	// ---- Correlation id on every request
	app.Use(gateway.Correlation())

	// ---- Coarse per-IP limiter (the per-subject budgets live in the gateway)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.GlobalRateMax,
		Expiration: cfg.GlobalRateWindow,
		// Default KeyGenerator = client IP; default 429 handler is fine.
	}))

	// ---- Routes
	routes.Register(app, gw, cfg)

	// ---- Start
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
