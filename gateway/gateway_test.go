package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"touroperator-backend/audit"
	"touroperator-backend/clock"
	"touroperator-backend/httperr"
	"touroperator-backend/idempotency"
	"touroperator-backend/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app     *fiber.App
	clk     *clock.Fake
	handled atomic.Int32
}

// newTestEnv builds a minimal app around the guard: fake auth locals, the
// correlation middleware, and a counting handler.
func newTestEnv(t *testing.T, p Policy, handler fiber.Handler) *testEnv {
	t.Helper()

	env := &testEnv{clk: clock.NewFake(time.Unix(1_700_000_000, 0))}

	co := idempotency.NewCoordinator(idempotency.NewMemoryStore(), env.clk, idempotency.Options{})
	gw := New(co, ratelimit.NewMemoryCounter(env.clk), audit.Discard{})

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httperr.FromError(c, err)
		},
	})
	app.Use(Correlation())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("schema", "acme")
		c.Locals("userID", "u1")
		return c.Next()
	})
	if handler == nil {
		handler = func(c *fiber.Ctx) error {
			env.handled.Add(1)
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": int(env.handled.Load())})
		}
	}
	app.Post("/api/booking", gw.Guard(p), handler)

	env.app = app
	return env
}

type response struct {
	Code   int
	Header http.Header
	Body   string
}

func post(t *testing.T, app *fiber.App, key, body string) response {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/booking", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{Code: resp.StatusCode, Header: resp.Header, Body: string(b)}
}

func createPolicy() Policy {
	return Policy{
		Operation:  "booking.create",
		Resource:   "booking",
		Limit:      10,
		Window:     time.Minute,
		RequireKey: true,
	}
}

func TestGuardRequiresIdempotencyKey(t *testing.T) {
	env := newTestEnv(t, createPolicy(), nil)

	rec := post(t, env.app, "", `{"client_id":1}`)
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body, httperr.CodeKeyRequired)
	assert.Equal(t, int32(0), env.handled.Load(), "handler must not run")
}

func TestGuardRejectsOverlongKey(t *testing.T) {
	env := newTestEnv(t, createPolicy(), nil)

	rec := post(t, env.app, strings.Repeat("k", 129), `{}`)
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(0), env.handled.Load())
}

func TestGuardReplaysCachedResponse(t *testing.T) {
	env := newTestEnv(t, createPolicy(), nil)

	first := post(t, env.app, "key-1", `{"client_id":1}`)
	assert.Equal(t, fiber.StatusCreated, first.Code)
	assert.Empty(t, first.Header.Get(HeaderReplay))

	second := post(t, env.app, "key-1", `{"client_id":1}`)
	assert.Equal(t, fiber.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header.Get(HeaderReplay))
	assert.Equal(t, first.Body, second.Body, "byte-identical replay")
	assert.Equal(t, int32(1), env.handled.Load(), "handler ran exactly once")
}

func TestGuardReplayIgnoresKeyOrder(t *testing.T) {
	env := newTestEnv(t, createPolicy(), nil)

	post(t, env.app, "key-1", `{"client_id":1,"travelers":2}`)
	rec := post(t, env.app, "key-1", `{"travelers":2,"client_id":1}`)
	assert.Equal(t, "true", rec.Header.Get(HeaderReplay))
	assert.Equal(t, int32(1), env.handled.Load())
}

func TestGuardConflictOnKeyReuse(t *testing.T) {
	env := newTestEnv(t, createPolicy(), nil)

	post(t, env.app, "key-1", `{"client_id":1}`)
	rec := post(t, env.app, "key-1", `{"client_id":2}`)
	assert.Equal(t, fiber.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body, httperr.CodeIdempotencyConflict)
	assert.Equal(t, int32(1), env.handled.Load())
}

func TestGuardRateLimit(t *testing.T) {
	p := createPolicy()
	p.Limit = 2
	env := newTestEnv(t, p, nil)

	post(t, env.app, "key-1", `{}`)
	rec := post(t, env.app, "key-2", `{}`)
	assert.Equal(t, "0", rec.Header.Get(HeaderRateRemaining))

	rec = post(t, env.app, "key-3", `{}`)
	assert.Equal(t, fiber.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body, httperr.CodeRateLimited)
	assert.NotEmpty(t, rec.Header.Get(fiber.HeaderRetryAfter))
	assert.NotEmpty(t, rec.Header.Get(HeaderRateReset))
	assert.Equal(t, int32(2), env.handled.Load(), "denied call never reaches the handler")

	// New window reopens the budget.
	env.clk.Advance(time.Minute)
	rec = post(t, env.app, "key-4", `{}`)
	assert.Equal(t, fiber.StatusCreated, rec.Code)
}

func TestGuardCachesDeterministicHandlerError(t *testing.T) {
	var runs atomic.Int32
	env := newTestEnv(t, createPolicy(), func(c *fiber.Ctx) error {
		runs.Add(1)
		return fiber.NewError(fiber.StatusConflict, "booking already cancelled")
	})

	first := post(t, env.app, "key-1", `{}`)
	assert.Equal(t, fiber.StatusConflict, first.Code)

	second := post(t, env.app, "key-1", `{}`)
	assert.Equal(t, fiber.StatusConflict, second.Code)
	assert.Equal(t, "true", second.Header.Get(HeaderReplay))
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int32(1), runs.Load(), "business error cached, side effects not re-run")
}

func TestGuardReleasesKeyOnServerError(t *testing.T) {
	var runs atomic.Int32
	env := newTestEnv(t, createPolicy(), func(c *fiber.Ctx) error {
		if runs.Add(1) == 1 {
			return fiber.NewError(fiber.StatusInternalServerError, "db down")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
	})

	rec := post(t, env.app, "key-1", `{}`)
	assert.Equal(t, fiber.StatusInternalServerError, rec.Code)

	// Transient failure released the key; the retry runs the handler again.
	rec = post(t, env.app, "key-1", `{}`)
	assert.Equal(t, fiber.StatusCreated, rec.Code)
	assert.Equal(t, int32(2), runs.Load())
}

func TestGuardCorrelationIDOnEveryResponse(t *testing.T) {
	env := newTestEnv(t, createPolicy(), nil)

	rec := post(t, env.app, "", `{}`)
	assert.NotEmpty(t, rec.Header.Get(HeaderCorrelationID))
	assert.Contains(t, rec.Body, "correlation_id")
}

func TestCorrelationPropagatesSuppliedID(t *testing.T) {
	app := fiber.New()
	app.Use(Correlation())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(CorrelationID(c))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderCorrelationID, "corr-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "corr-123", string(body))
	assert.Equal(t, "corr-123", resp.Header.Get(HeaderCorrelationID))
}
