package audit

import (
	"context"
	"log"
	"sync"
	"time"
)

// Async decouples audit writes from the request path with a buffered channel
// and one worker goroutine. Record never blocks: a full buffer drops the entry
// with a log line. Sink errors are logged and swallowed.
type Async struct {
	sink    Recorder
	ch      chan Entry
	once    sync.Once
	done    chan struct{}
	timeout time.Duration
}

func NewAsync(sink Recorder, buffer int) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	a := &Async{
		sink:    sink,
		ch:      make(chan Entry, buffer),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
	}
	go a.run()
	return a
}

// Record enqueues the entry. The passed context is not held past enqueue; the
// worker uses its own deadline.
func (a *Async) Record(ctx context.Context, e Entry) error {
	select {
	case a.ch <- e:
	default:
		log.Printf("audit: buffer full, dropping %s for %s", e.Action, e.TenantSchema)
	}
	return nil
}

// Close stops the worker after draining whatever is queued.
func (a *Async) Close() {
	a.once.Do(func() {
		close(a.ch)
		<-a.done
	})
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.ch {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.sink.Record(ctx, e); err != nil {
			log.Printf("audit: record %s failed: %v", e.Action, err)
		}
		cancel()
	}
}
