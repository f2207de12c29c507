package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go-cheque-batch/internal/model"
)

var (
	// ErrRateLimited rejects a client that exceeded its submission window.
	ErrRateLimited = errors.New("submission rate limit exceeded")

	// ErrDuplicateBatch rejects a manifest identical to one recently
	// submitted by the same client, a common sign of a stuck retry loop.
	ErrDuplicateBatch = errors.New("identical batch submitted recently")
)

// SubmissionGuard is invoked once per submission, before orchestration
// begins. It owns its TTL stores; nothing here is package-level state.
type SubmissionGuard struct {
	rates        *TTLStore
	seen         *TTLStore
	maxPerWindow int
}

// NewSubmissionGuard creates a guard allowing maxPerWindow submissions per
// client within window.
func NewSubmissionGuard(maxPerWindow int, window time.Duration) *SubmissionGuard {
	return &SubmissionGuard{
		rates:        NewTTLStore(window),
		seen:         NewTTLStore(window),
		maxPerWindow: maxPerWindow,
	}
}

// Check admits or rejects a submission. Rejections are non-retryable from
// the orchestrator's point of view: the batch never gets created.
func (g *SubmissionGuard) Check(clientID string, manifest []model.ItemManifest) error {
	if clientID == "" {
		clientID = "anonymous"
	}
	if g.rates.Incr(clientID) > g.maxPerWindow {
		return ErrRateLimited
	}
	if g.seen.Seen(clientID + ":" + fingerprint(manifest)) {
		return ErrDuplicateBatch
	}
	g.rates.Sweep()
	return nil
}

// fingerprint hashes the manifest contents so resubmissions of the same
// payload are detectable without storing the payload itself.
func fingerprint(manifest []model.ItemManifest) string {
	h := sha256.New()
	for _, m := range manifest {
		fmt.Fprintf(h, "%s|%s|%s;", m.Name, m.PayloadRef, m.MimeType)
	}
	return hex.EncodeToString(h.Sum(nil))
}
