package idempotency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"touroperator-backend/clock"
	"touroperator-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	co := NewCoordinator(NewMemoryStore(), clk, Options{
		TTL:             24 * time.Hour,
		InFlightTimeout: 30 * time.Second,
		MaxBodyBytes:    64 * 1024,
	})
	return co, clk
}

const fp1 = "aaaa1111"

func TestClaimProceedThenReplay(t *testing.T) {
	co, _ := newTestCoordinator(t)
	ctx := context.Background()

	d, err := co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)
	require.Equal(t, OutcomeProceed, d.Outcome)

	body := []byte(`{"id":7,"status":"confirmed"}`)
	require.NoError(t, co.Complete(ctx, "acme", "key-1", 201,
		map[string]string{"Content-Type": "application/json"}, body))

	// Any number of claims after completion replay identical bytes.
	for i := 0; i < 3; i++ {
		d, err = co.Claim(ctx, "acme", "u1", "key-1", fp1)
		require.NoError(t, err)
		require.Equal(t, OutcomeReplay, d.Outcome)
		require.NotNil(t, d.Response)
		assert.Equal(t, 201, d.Response.StatusCode)
		assert.Equal(t, body, d.Response.Body)
		assert.Equal(t, "application/json", d.Response.Headers["Content-Type"])
	}
}

func TestClaimConflictOnDifferentFingerprint(t *testing.T) {
	co, _ := newTestCoordinator(t)
	ctx := context.Background()

	d, err := co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)
	require.Equal(t, OutcomeProceed, d.Outcome)

	// While still processing.
	d, err = co.Claim(ctx, "acme", "u1", "key-1", "bbbb2222")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConflict, d.Outcome)

	// And after completion.
	require.NoError(t, co.Complete(ctx, "acme", "key-1", 200, nil, []byte(`{}`)))
	d, err = co.Claim(ctx, "acme", "u1", "key-1", "bbbb2222")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConflict, d.Outcome)
}

func TestClaimInProgressWithinTimeout(t *testing.T) {
	co, clk := newTestCoordinator(t)
	ctx := context.Background()

	_, err := co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)

	clk.Advance(10 * time.Second)
	d, err := co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)
	require.Equal(t, OutcomeInProgress, d.Outcome)
	assert.Equal(t, 20*time.Second, d.RetryAfter)
}

func TestClaimReclaimAfterTimeout(t *testing.T) {
	co, clk := newTestCoordinator(t)
	ctx := context.Background()

	d, err := co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)
	require.Equal(t, OutcomeProceed, d.Outcome)

	// Holder crashed; past the in-flight timeout the key is reclaimable.
	clk.Advance(31 * time.Second)
	d, err = co.Claim(ctx, "acme", "u2", "key-1", fp1)
	require.NoError(t, err)
	require.Equal(t, OutcomeProceed, d.Outcome)

	// The reclaimer's outcome becomes the cached one.
	require.NoError(t, co.Complete(ctx, "acme", "key-1", 200, nil, []byte(`"second"`)))
	d, err = co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)
	require.Equal(t, OutcomeReplay, d.Outcome)
	assert.Equal(t, []byte(`"second"`), d.Response.Body)
}

func TestClaimTTLExpiryAllowsReuse(t *testing.T) {
	co, clk := newTestCoordinator(t)
	ctx := context.Background()

	_, err := co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)
	require.NoError(t, co.Complete(ctx, "acme", "key-1", 200, nil, []byte(`{}`)))

	clk.Advance(24*time.Hour + time.Minute)
	d, err := co.Claim(ctx, "acme", "u1", "key-1", "totally-new-fp")
	require.NoError(t, err)
	assert.Equal(t, OutcomeProceed, d.Outcome, "expired key behaves as absent")
}

func TestReleaseMakesKeyRetryable(t *testing.T) {
	co, _ := newTestCoordinator(t)
	ctx := context.Background()

	_, err := co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)
	require.NoError(t, co.Release(ctx, "acme", "key-1"))

	d, err := co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProceed, d.Outcome)
}

func TestClaimTenantsAreIsolated(t *testing.T) {
	co, _ := newTestCoordinator(t)
	ctx := context.Background()

	d, err := co.Claim(ctx, "acme", "u1", "key-1", fp1)
	require.NoError(t, err)
	require.Equal(t, OutcomeProceed, d.Outcome)

	d, err = co.Claim(ctx, "globex", "u1", "key-1", fp1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProceed, d.Outcome, "same key in another tenant is independent")
}

func TestClaimConcurrentExactlyOneProceeds(t *testing.T) {
	co, _ := newTestCoordinator(t)
	ctx := context.Background()

	const callers = 16
	var proceeds, inProgress atomic.Int32

	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			d, err := co.Claim(ctx, "acme", "u1", "key-race", fp1)
			if err != nil {
				return err
			}
			switch d.Outcome {
			case OutcomeProceed:
				proceeds.Add(1)
			case OutcomeInProgress:
				inProgress.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), proceeds.Load())
	assert.Equal(t, int32(callers-1), inProgress.Load())
}

func TestCompleteBoundsOversizedBodies(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	co := NewCoordinator(NewMemoryStore(), clk, Options{MaxBodyBytes: 32})
	ctx := context.Background()

	_, err := co.Claim(ctx, "acme", "u1", "key-big", fp1)
	require.NoError(t, err)

	big := make([]byte, 1024)
	for i := range big {
		big[i] = 'x'
	}
	require.NoError(t, co.Complete(ctx, "acme", "key-big", 200, nil, big))

	d, err := co.Claim(ctx, "acme", "u1", "key-big", fp1)
	require.NoError(t, err)
	require.Equal(t, OutcomeReplay, d.Outcome)
	assert.True(t, d.Response.BodyOmitted)
	assert.Contains(t, string(d.Response.Body), `"size":1024`)
	assert.Contains(t, string(d.Response.Body), `"sha256"`)
}

// failingStore simulates key-store unavailability.
type failingStore struct {
	Store
}

func (failingStore) Insert(ctx context.Context, tenant string, rec *models.IdempotencyRecord) error {
	return errors.New("connection refused")
}

func TestClaimFailsClosedOnStoreError(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	co := NewCoordinator(failingStore{NewMemoryStore()}, clk, Options{})

	_, err := co.Claim(context.Background(), "acme", "u1", "key-1", fp1)
	require.Error(t, err, "claim must fail rather than proceed unclaimed")
}
