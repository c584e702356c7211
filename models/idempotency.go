package models

import (
	"time"

	"gorm.io/datatypes"
)

// Idempotency record statuses. A record is inserted as processing and moves to
// completed exactly once; failed handlers delete it instead.
const (
	IdempotencyProcessing = "processing"
	IdempotencyCompleted  = "completed"
)

// IdempotencyRecord caches the outcome of a keyed mutation. It lives in the
// tenant schema, so the unique index on Key is per-tenant uniqueness.
type IdempotencyRecord struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Key          string `json:"key" gorm:"size:128;not null;uniqueIndex"` // header value
	TenantSchema string `json:"tenant_schema" gorm:"size:64;not null"`
	OwnerID      string `json:"owner_id" gorm:"size:128;not null"`
	Fingerprint  string `json:"fingerprint" gorm:"size:64;not null"` // sha256 of operation|path|canonical body
	Status       string `json:"status" gorm:"size:16;not null"`

	// Populated once Status = completed.
	ResponseStatus  int            `json:"response_status"`
	ResponseHeaders datatypes.JSON `json:"-" gorm:"type:jsonb"`
	ResponseBody    []byte         `json:"-" gorm:"type:bytea"`
	BodyOmitted     bool           `json:"body_omitted"` // oversized body replaced by a summary

	CreatedAt time.Time `json:"created_at"`
	ClaimedAt time.Time `json:"claimed_at" gorm:"index"` // refreshed when a stale claim is taken over
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}
