package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cheque-batch/internal/model"
)

func manifest(names ...string) []model.ItemManifest {
	m := make([]model.ItemManifest, len(names))
	for i, name := range names {
		m[i] = model.ItemManifest{Name: name, PayloadRef: "payloads/" + name, MimeType: "image/png"}
	}
	return m
}

func TestGuardAllowsDistinctSubmissions(t *testing.T) {
	g := NewSubmissionGuard(5, time.Minute)

	require.NoError(t, g.Check("client-1", manifest("a.png")))
	require.NoError(t, g.Check("client-1", manifest("b.png")))
	require.NoError(t, g.Check("client-2", manifest("a.png")), "fingerprints are per client")
}

func TestGuardRateLimitsPerClient(t *testing.T) {
	g := NewSubmissionGuard(2, time.Minute)

	require.NoError(t, g.Check("client-1", manifest("a.png")))
	require.NoError(t, g.Check("client-1", manifest("b.png")))
	assert.ErrorIs(t, g.Check("client-1", manifest("c.png")), ErrRateLimited)
	assert.NoError(t, g.Check("client-2", manifest("d.png")), "other clients unaffected")
}

func TestGuardRejectsDuplicateManifest(t *testing.T) {
	g := NewSubmissionGuard(10, time.Minute)

	require.NoError(t, g.Check("client-1", manifest("a.png", "b.png")))
	assert.ErrorIs(t, g.Check("client-1", manifest("a.png", "b.png")), ErrDuplicateBatch)
	assert.NoError(t, g.Check("client-1", manifest("b.png", "a.png")), "order changes the fingerprint")
}

func TestGuardWindowExpiry(t *testing.T) {
	g := NewSubmissionGuard(1, time.Minute)
	now := time.Now()
	g.rates.now = func() time.Time { return now }
	g.seen.now = func() time.Time { return now }

	require.NoError(t, g.Check("client-1", manifest("a.png")))
	assert.ErrorIs(t, g.Check("client-1", manifest("b.png")), ErrRateLimited)

	now = now.Add(2 * time.Minute)
	assert.NoError(t, g.Check("client-1", manifest("a.png")), "window and fingerprint both expired")
}

func TestGuardAnonymousClients(t *testing.T) {
	g := NewSubmissionGuard(1, time.Minute)
	require.NoError(t, g.Check("", manifest("a.png")))
	assert.ErrorIs(t, g.Check("", manifest("b.png")), ErrRateLimited, "anonymous submissions share one bucket")
}

func TestTTLStoreSweepEvictsExpired(t *testing.T) {
	s := NewTTLStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Incr("a")
	s.Incr("b")
	require.Equal(t, 2, s.Len())

	now = now.Add(2 * time.Minute)
	s.Sweep()
	assert.Zero(t, s.Len())
}

func TestTTLStoreCounterResetsAfterExpiry(t *testing.T) {
	s := NewTTLStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	assert.Equal(t, 1, s.Incr("a"))
	assert.Equal(t, 2, s.Incr("a"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, s.Incr("a"), "expired entries restart at 1")
}
