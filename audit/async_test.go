package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (s *captureSink) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *captureSink) recorded() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func TestAsyncDeliversEntriesInOrder(t *testing.T) {
	sink := &captureSink{}
	a := NewAsync(sink, 16)

	for _, action := range []string{"client.create", "booking.create", "booking.cancel"} {
		require.NoError(t, a.Record(context.Background(), Entry{TenantSchema: "acme", Action: action}))
	}
	a.Close()

	got := sink.recorded()
	require.Len(t, got, 3)
	assert.Equal(t, "client.create", got[0].Action)
	assert.Equal(t, "booking.cancel", got[2].Action)
}

func TestAsyncSwallowsSinkErrors(t *testing.T) {
	sink := &captureSink{err: errors.New("db down")}
	a := NewAsync(sink, 4)

	assert.NoError(t, a.Record(context.Background(), Entry{Action: "client.create"}))
	a.Close()
	assert.Empty(t, sink.recorded())
}

func TestAsyncCloseDrainsQueue(t *testing.T) {
	sink := &captureSink{}
	a := NewAsync(sink, 64)

	for i := 0; i < 50; i++ {
		require.NoError(t, a.Record(context.Background(), Entry{Action: "booking.create"}))
	}
	a.Close()
	assert.Len(t, sink.recorded(), 50)
}

func TestAsyncCloseIsIdempotent(t *testing.T) {
	a := NewAsync(Discard{}, 1)
	a.Close()
	a.Close()
}
