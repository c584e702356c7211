package idempotency

import (
	"context"
	"errors"
	"time"

	"touroperator-backend/models"
)

var (
	// ErrDuplicate is returned by Insert when a record with the same key
	// already exists in the tenant scope.
	ErrDuplicate = errors.New("idempotency: key already claimed")

	// ErrNotFound is returned by Get when no record exists for the key.
	ErrNotFound = errors.New("idempotency: record not found")
)

// Store is the durable key store. The single hard requirement is that Insert
// is atomic (unique-constraint insert): two concurrent inserts for the same
// key must never both succeed.
type Store interface {
	// Insert creates the record, or returns ErrDuplicate if the key exists.
	Insert(ctx context.Context, tenant string, rec *models.IdempotencyRecord) error

	// Get loads the record for key, or ErrNotFound.
	Get(ctx context.Context, tenant, key string) (*models.IdempotencyRecord, error)

	// Reclaim takes over a processing record whose claim is older than
	// staleBefore, in a single conditional update. Returns true if this
	// caller won the takeover.
	Reclaim(ctx context.Context, tenant, key string, staleBefore, claimedAt, expiresAt time.Time) (bool, error)

	// Complete transitions the record to completed with the cached response.
	Complete(ctx context.Context, tenant, key string, statusCode int, headers []byte, body []byte, bodyOmitted bool) error

	// Delete removes the record unconditionally (failed handler, key retryable).
	Delete(ctx context.Context, tenant, key string) error

	// DeleteExpired removes the record only if its TTL has elapsed.
	DeleteExpired(ctx context.Context, tenant, key string, now time.Time) error
}
