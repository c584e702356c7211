package audit

import (
	"context"
	"time"
)

// Entry is one audit trail record. Changes and Metadata are already-encoded
// JSON so sinks never re-marshal request payloads.
type Entry struct {
	TenantSchema  string
	UserID        string
	Action        string
	ResourceType  string
	ResourceID    string
	Changes       []byte
	Metadata      []byte
	CorrelationID string
	At            time.Time
}

// Recorder persists audit entries. Emission is best-effort end to end: a
// failing recorder must never fail the request that produced the entry.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Discard drops every entry. Used in tests and when auditing is disabled.
type Discard struct{}

func (Discard) Record(ctx context.Context, e Entry) error { return nil }
