package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"touroperator-backend/clock"
	"touroperator-backend/models"
)

// Outcome of a Claim call.
type Outcome int

const (
	// OutcomeProceed means the caller owns the key and must eventually call
	// Complete or Release.
	OutcomeProceed Outcome = iota
	// OutcomeReplay means a completed response is cached for this key+fingerprint.
	OutcomeReplay
	// OutcomeConflict means the key was reused for a different request.
	OutcomeConflict
	// OutcomeInProgress means another request holds the key within the
	// in-flight timeout.
	OutcomeInProgress
)

// CachedResponse is the replayable outcome of a completed mutation.
type CachedResponse struct {
	StatusCode  int
	Headers     map[string]string
	Body        []byte
	BodyOmitted bool
}

// Decision is the result of Claim. RetryAfter is set for OutcomeInProgress.
type Decision struct {
	Outcome    Outcome
	Response   *CachedResponse
	RetryAfter time.Duration
}

// Options tunes a Coordinator. Zero values fall back to the defaults the
// endpoints historically used.
type Options struct {
	TTL             time.Duration // key lifetime, default 24h
	InFlightTimeout time.Duration // processing claims older than this are reclaimable, default 30s
	MaxBodyBytes    int           // cached bodies above this are summarized, default 64 KiB
}

// Coordinator guarantees at-most-once application of a keyed mutation per
// tenant. All cross-request synchronization happens in the store's atomic
// insert; the coordinator itself is stateless and safe for concurrent use.
type Coordinator struct {
	store    Store
	clk      clock.Clock
	ttl      time.Duration
	inFlight time.Duration
	maxBody  int
}

func NewCoordinator(store Store, clk clock.Clock, opts Options) *Coordinator {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.InFlightTimeout <= 0 {
		opts.InFlightTimeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 * 1024
	}
	return &Coordinator{
		store:    store,
		clk:      clk,
		ttl:      opts.TTL,
		inFlight: opts.InFlightTimeout,
		maxBody:  opts.MaxBodyBytes,
	}
}

// Claim reserves key for exclusive processing. Store failures are returned as
// errors; the gateway must treat those as "idempotency unavailable" and reject
// the mutation rather than proceed unclaimed.
func (co *Coordinator) Claim(ctx context.Context, tenant, owner, key, fingerprint string) (Decision, error) {
	now := co.clk.Now().UTC()

	// Two passes: the second covers the case where the record we lost the
	// insert race to turns out to be expired and is deleted underneath us.
	for attempt := 0; attempt < 2; attempt++ {
		rec := &models.IdempotencyRecord{
			Key:          key,
			TenantSchema: tenant,
			OwnerID:      owner,
			Fingerprint:  fingerprint,
			Status:       models.IdempotencyProcessing,
			CreatedAt:    now,
			ClaimedAt:    now,
			ExpiresAt:    now.Add(co.ttl),
		}
		err := co.store.Insert(ctx, tenant, rec)
		if err == nil {
			return Decision{Outcome: OutcomeProceed}, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return Decision{}, fmt.Errorf("idempotency claim: %w", err)
		}

		existing, err := co.store.Get(ctx, tenant, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Deleted between our insert and read; try again.
				continue
			}
			return Decision{}, fmt.Errorf("idempotency lookup: %w", err)
		}

		// A record past its TTL behaves as absent.
		if !existing.ExpiresAt.After(now) {
			if err := co.store.DeleteExpired(ctx, tenant, key, now); err != nil {
				return Decision{}, fmt.Errorf("idempotency expiry: %w", err)
			}
			continue
		}

		if existing.Fingerprint != fingerprint {
			return Decision{Outcome: OutcomeConflict}, nil
		}

		if existing.Status == models.IdempotencyCompleted {
			resp, err := responseFromRecord(existing)
			if err != nil {
				return Decision{}, err
			}
			return Decision{Outcome: OutcomeReplay, Response: resp}, nil
		}

		// Still processing. Within the in-flight timeout the holder keeps the
		// key; past it the claim is treated as abandoned and taken over.
		staleBefore := now.Add(-co.inFlight)
		if existing.ClaimedAt.After(staleBefore) {
			return Decision{
				Outcome:    OutcomeInProgress,
				RetryAfter: existing.ClaimedAt.Add(co.inFlight).Sub(now),
			}, nil
		}

		won, err := co.store.Reclaim(ctx, tenant, key, staleBefore, now, now.Add(co.ttl))
		if err != nil {
			return Decision{}, fmt.Errorf("idempotency reclaim: %w", err)
		}
		if won {
			return Decision{Outcome: OutcomeProceed}, nil
		}
		// Someone else took it over (or completed it) first.
		return Decision{Outcome: OutcomeInProgress, RetryAfter: co.inFlight}, nil
	}

	// Lost the insert race twice in a row; tell the caller to retry shortly.
	return Decision{Outcome: OutcomeInProgress, RetryAfter: time.Second}, nil
}

// Complete caches the handler's outcome and marks the key terminal. Bodies
// above the cache bound are replaced by a summary (size + digest) so the
// record is never dropped silently.
func (co *Coordinator) Complete(ctx context.Context, tenant, key string, statusCode int, headers map[string]string, body []byte) error {
	omitted := false
	if len(body) > co.maxBody {
		sum := sha256.Sum256(body)
		summary, _ := json.Marshal(map[string]any{
			"body_omitted": true,
			"size":         len(body),
			"sha256":       hex.EncodeToString(sum[:]),
		})
		body = summary
		omitted = true
	}

	var headerJSON []byte
	if len(headers) > 0 {
		var err error
		headerJSON, err = json.Marshal(headers)
		if err != nil {
			return fmt.Errorf("idempotency complete: encode headers: %w", err)
		}
	}

	if err := co.store.Complete(ctx, tenant, key, statusCode, headerJSON, body, omitted); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release deletes the record so a retry can run the handler again. Used for
// transient failures only; deterministic business outcomes go through
// Complete instead.
func (co *Coordinator) Release(ctx context.Context, tenant, key string) error {
	if err := co.store.Delete(ctx, tenant, key); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func responseFromRecord(rec *models.IdempotencyRecord) (*CachedResponse, error) {
	resp := &CachedResponse{
		StatusCode:  rec.ResponseStatus,
		Body:        rec.ResponseBody,
		BodyOmitted: rec.BodyOmitted,
	}
	if len(rec.ResponseHeaders) > 0 {
		if err := json.Unmarshal(rec.ResponseHeaders, &resp.Headers); err != nil {
			return nil, fmt.Errorf("idempotency replay: decode headers: %w", err)
		}
	}
	return resp, nil
}
