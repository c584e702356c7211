package ratelimit

import (
	"context"
	"time"
)

// Result reports one Track call. ResetAt is epoch seconds at which the current
// window reopens; RetryAfter is whole seconds until then (0 when allowed).
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    int64
	RetryAfter int
}

// Counter is a fixed-window counter keyed by subject. Implementations must
// keep counts exact under concurrent callers of the same subject, without a
// single lock across unrelated subjects.
//
// Fixed windows admit up to 2x limit across a window boundary; that burst is a
// documented approximation of this scheme, not a bug.
type Counter interface {
	Track(ctx context.Context, subject string, limit int, window time.Duration) (Result, error)
}

// Subject composes the per-call budget key. Each operation gets its own
// subject, so exhausting one operation's budget never affects another's.
func Subject(tenant, user, operation string) string {
	return tenant + ":" + user + ":" + operation
}
