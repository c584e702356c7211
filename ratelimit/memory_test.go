package ratelimit

import (
	"context"
	"testing"
	"time"

	"touroperator-backend/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestTrackWindowExactness(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	counter := NewMemoryCounter(clk)
	ctx := context.Background()

	// limit calls admitted, the (limit+1)th denied
	for i := 1; i <= 5; i++ {
		res, err := counter.Track(ctx, "t1:user_42:cancel", 5, time.Hour)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d should be admitted", i)
		assert.Equal(t, 5-i, res.Remaining)
	}

	res, err := counter.Track(ctx, "t1:user_42:cancel", 5, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, clk.Now().Add(time.Hour).Unix(), res.ResetAt)
	assert.Equal(t, 3600, res.RetryAfter)
}

func TestTrackResetsAfterWindow(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	counter := NewMemoryCounter(clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := counter.Track(ctx, "t1:u1:create", 2, time.Minute)
		require.NoError(t, err)
	}
	res, err := counter.Track(ctx, "t1:u1:create", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	clk.Advance(time.Minute)
	res, err = counter.Track(ctx, "t1:u1:create", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestTrackDenialStillCounts(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	counter := NewMemoryCounter(clk)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		counter.Track(ctx, "t1:u1:op", 1, time.Hour)
	}
	// Window start was fixed on first call; hammering did not move it.
	res, err := counter.Track(ctx, "t1:u1:op", 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Unix(1_700_000_000, 0).Add(time.Hour).Unix(), res.ResetAt)
}

func TestTrackIndependentOperations(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	counter := NewMemoryCounter(clk)
	ctx := context.Background()

	// Exhaust operation A for the subject.
	for i := 0; i < 4; i++ {
		counter.Track(ctx, Subject("t1", "u1", "booking.cancel"), 3, time.Hour)
	}
	res, err := counter.Track(ctx, Subject("t1", "u1", "booking.cancel"), 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// Operation B still has its full budget.
	res, err = counter.Track(ctx, Subject("t1", "u1", "booking.create"), 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestTrackExactUnderConcurrency(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	counter := NewMemoryCounter(clk)
	ctx := context.Background()

	const calls = 100
	const limit = 40

	var g errgroup.Group
	allowed := make(chan bool, calls)
	for i := 0; i < calls; i++ {
		g.Go(func() error {
			res, err := counter.Track(ctx, "t1:u1:burst", limit, time.Hour)
			if err != nil {
				return err
			}
			allowed <- res.Allowed
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(allowed)

	admitted := 0
	for ok := range allowed {
		if ok {
			admitted++
		}
	}
	assert.Equal(t, limit, admitted)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "acme:u7:booking.cancel", Subject("acme", "u7", "booking.cancel"))
}
