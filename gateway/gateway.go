package gateway

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"touroperator-backend/audit"
	"touroperator-backend/httperr"
	"touroperator-backend/idempotency"
	"touroperator-backend/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// Request/response headers owned by the gateway.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplay         = "X-Idempotent-Replay"
	HeaderRateLimit      = "X-RateLimit-Limit"
	HeaderRateRemaining  = "X-RateLimit-Remaining"
	HeaderRateReset      = "X-RateLimit-Reset"
)

const maxKeyLength = 128

// LocalResourceID lets a handler report the id of the resource it created, so
// the audit entry can point at it.
const LocalResourceID = "auditResourceID"

// Policy configures the guard for one operation. Zero TTL/InFlightTimeout
// defer to the coordinator's defaults.
type Policy struct {
	Operation  string        // budget + audit action name, e.g. "booking.create"
	Resource   string        // audit resource type, e.g. "booking"
	Limit      int           // calls per window per tenant:user
	Window     time.Duration // fixed window length
	RequireKey bool          // state-mutating creates must send Idempotency-Key
}

// Gateway wraps mutating handlers with rate limiting, idempotency, and audit
// emission. It assumes the auth middleware already populated the tenant schema
// and user id locals.
type Gateway struct {
	coordinator *idempotency.Coordinator
	counter     ratelimit.Counter
	recorder    audit.Recorder
}

func New(coordinator *idempotency.Coordinator, counter ratelimit.Counter, recorder audit.Recorder) *Gateway {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &Gateway{coordinator: coordinator, counter: counter, recorder: recorder}
}

// Guard returns the per-route middleware. Order of checks: rate budget first
// (cheap, side-effect free reject), then the idempotency claim, then the
// handler; the handler's outcome is cached or released depending on whether a
// retry could legitimately change it.
func (g *Gateway) Guard(p Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		schema, _ := c.Locals("schema").(string)
		userID, _ := c.Locals("userID").(string)
		if schema == "" || userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
		}
		ctx := c.UserContext()

		res, err := g.counter.Track(ctx, ratelimit.Subject(schema, userID, p.Operation), p.Limit, p.Window)
		if err != nil {
			log.Printf("rate counter unavailable [%s]: %v", CorrelationID(c), err)
			return httperr.Write(c, fiber.StatusServiceUnavailable,
				httperr.CodeRateLimiterUnavailable, "rate limiter unavailable, request rejected")
		}
		c.Set(HeaderRateLimit, strconv.Itoa(res.Limit))
		c.Set(HeaderRateRemaining, strconv.Itoa(res.Remaining))
		c.Set(HeaderRateReset, strconv.FormatInt(res.ResetAt, 10))
		if !res.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(res.RetryAfter))
			return httperr.Write(c, fiber.StatusTooManyRequests,
				httperr.CodeRateLimited, "rate limit exceeded, retry after reset")
		}

		key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if key == "" {
			if p.RequireKey {
				return httperr.Write(c, fiber.StatusBadRequest,
					httperr.CodeKeyRequired, "Idempotency-Key header is required for this operation")
			}
			// Unkeyed mutation (updates, cancels without a key requirement):
			// rate limiting and audit still apply.
			err := c.Next()
			if err != nil {
				return err
			}
			g.emit(c, p)
			return nil
		}
		if len(key) > maxKeyLength {
			return httperr.Write(c, fiber.StatusBadRequest,
				httperr.CodeKeyRequired, "Idempotency-Key too long")
		}

		fingerprint := idempotency.Fingerprint(p.Operation, c.OriginalURL(), c.Body())
		decision, err := g.coordinator.Claim(ctx, schema, userID, key, fingerprint)
		if err != nil {
			// Fail closed: without a claim the mutation could apply twice.
			log.Printf("idempotency unavailable [%s]: %v", CorrelationID(c), err)
			return httperr.Write(c, fiber.StatusServiceUnavailable,
				httperr.CodeIdempotencyUnavailable, "idempotency unavailable, mutation rejected")
		}

		switch decision.Outcome {
		case idempotency.OutcomeReplay:
			return writeReplay(c, decision.Response)
		case idempotency.OutcomeConflict:
			return httperr.Write(c, fiber.StatusConflict,
				httperr.CodeIdempotencyConflict, "Idempotency-Key reused with a different request")
		case idempotency.OutcomeInProgress:
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
			return httperr.Write(c, fiber.StatusConflict,
				httperr.CodeIdempotencyInProgress, "a request with this Idempotency-Key is still processing")
		}

		// OutcomeProceed: run the handler exactly once for this key.
		if err := c.Next(); err != nil {
			// Render the envelope the app error handler would, so the cached
			// bytes match what this caller receives.
			_ = httperr.FromError(c, err)
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			// Transient failure: drop the claim so a retry can run again.
			if rerr := g.coordinator.Release(ctx, schema, key); rerr != nil {
				log.Printf("idempotency release failed [%s]: %v", CorrelationID(c), rerr)
			}
			return nil
		}

		// Success or a deterministic client error: cache it so a retry with
		// the same key returns the same outcome without re-running effects.
		body := append([]byte(nil), c.Response().Body()...)
		if cerr := g.coordinator.Complete(ctx, schema, key, status, cacheableHeaders(c), body); cerr != nil {
			log.Printf("idempotency complete failed [%s]: %v", CorrelationID(c), cerr)
		}
		g.emit(c, p)
		return nil
	}
}

func writeReplay(c *fiber.Ctx, resp *idempotency.CachedResponse) error {
	for k, v := range resp.Headers {
		c.Set(k, v)
	}
	c.Set(HeaderReplay, "true")
	return c.Status(resp.StatusCode).Send(resp.Body)
}

func cacheableHeaders(c *fiber.Ctx) map[string]string {
	headers := map[string]string{}
	if ct := string(c.Response().Header.ContentType()); ct != "" {
		headers[fiber.HeaderContentType] = ct
	}
	if loc := string(c.Response().Header.Peek(fiber.HeaderLocation)); loc != "" {
		headers[fiber.HeaderLocation] = loc
	}
	return headers
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// emit hands the audit entry to the recorder. Best effort only: recorder
// failures are logged inside the async worker and never reach the caller.
func (g *Gateway) emit(c *fiber.Ctx, p Policy) {
	schema, _ := c.Locals("schema").(string)
	userID, _ := c.Locals("userID").(string)
	resourceID, _ := c.Locals(LocalResourceID).(string)

	meta, _ := json.Marshal(map[string]any{
		"method": c.Method(),
		"path":   c.OriginalURL(),
		"status": c.Response().StatusCode(),
	})
	_ = g.recorder.Record(c.UserContext(), audit.Entry{
		TenantSchema:  schema,
		UserID:        userID,
		Action:        p.Operation,
		ResourceType:  p.Resource,
		ResourceID:    resourceID,
		Metadata:      meta,
		CorrelationID: CorrelationID(c),
		At:            time.Now().UTC(),
	})
}
