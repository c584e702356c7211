package ratelimit

import (
	"context"
	"hash/fnv"
	"time"

	"touroperator-backend/clock"

	"sync"
)

const shardCount = 32

// MemoryCounter holds fixed windows in a sharded in-process map. Subjects hash
// onto shards, each with its own mutex, so contended subjects never serialize
// unrelated traffic. State is process-local: restarts reset every counter and
// multiple instances do not share budgets. Accepted behavior; swap in
// RedisCounter when budgets must be shared.
type MemoryCounter struct {
	clk    clock.Clock
	shards [shardCount]*shard
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	count int
}

func NewMemoryCounter(clk clock.Clock) *MemoryCounter {
	c := &MemoryCounter{clk: clk}
	for i := range c.shards {
		c.shards[i] = &shard{windows: make(map[string]*window)}
	}
	return c
}

// Track increments the subject's window and evaluates the budget. A denied
// call still counts, so hammering a closed window cannot ride for free.
func (c *MemoryCounter) Track(ctx context.Context, subject string, limit int, windowDur time.Duration) (Result, error) {
	sh := c.shards[shardFor(subject)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := c.clk.Now()
	w, ok := sh.windows[subject]
	if !ok {
		w = &window{start: now}
		sh.windows[subject] = w
	}
	if !now.Before(w.start.Add(windowDur)) {
		w.start = now
		w.count = 0
	}
	w.count++

	resetAt := w.start.Add(windowDur)
	res := Result{
		Allowed: w.count <= limit,
		Limit:   limit,
		ResetAt: resetAt.Unix(),
	}
	if remaining := limit - w.count; remaining > 0 {
		res.Remaining = remaining
	}
	if !res.Allowed {
		res.RetryAfter = ceilSeconds(resetAt.Sub(now))
	}
	return res, nil
}

func shardFor(subject string) int {
	h := fnv.New32a()
	h.Write([]byte(subject))
	return int(h.Sum32() % shardCount)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
