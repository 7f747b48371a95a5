// Package duplicate decides whether a captured image duplicates a previously
// captured receipt, combining a session-local fingerprint cache with a remote
// duplicate-check service. Duplicate detection is assistive: any remote
// failure resolves to "not a duplicate" rather than blocking the capture.
package duplicate

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"go-receipt-capture/internal/logger"
	"go-receipt-capture/pkg/models"
)

const defaultCheckTimeout = 5 * time.Second

// Resolver owns the recent-hash cache and the remote checker. Construct one
// per analysis pipeline; tests can build isolated instances with their own
// cache and fake checker.
type Resolver struct {
	cache   *HashCache
	checker Checker
	timeout time.Duration
}

// NewResolver creates a resolver with the given cache and remote checker.
// Timeout bounds each remote call on top of any caller deadline.
func NewResolver(cache *HashCache, checker Checker, timeout time.Duration) *Resolver {
	if cache == nil {
		cache = NewHashCache(0)
	}
	if checker == nil {
		checker = NewDisabledChecker()
	}
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return &Resolver{cache: cache, checker: checker, timeout: timeout}
}

// Resolve decides duplicate status for a fingerprint. The local cache is
// consulted first; an exact hit resolves immediately with full confidence and
// no network call. Otherwise the remote service is asked, with any failure or
// missing endpoint treated as "not a duplicate". Results arriving after the
// caller's context is cancelled are discarded without touching the cache.
func (r *Resolver) Resolve(ctx context.Context, hash models.PerceptualHash, meta *models.ReceiptMetadata) models.DuplicateCheckResult {
	if receiptID, ok := r.cache.Get(hash); ok {
		return models.DuplicateCheckResult{
			IsDuplicate:       true,
			ExistingReceiptID: receiptID,
			MatchConfidence:   1.0,
			MatchType:         models.MatchExactHash,
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.checker.Check(checkCtx, CheckRequest{Hash: hash, Metadata: meta})
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"hash": hash.Bits,
			"kind": hash.Kind,
		}).Warn("Duplicate check unavailable, failing open")
		return models.DuplicateCheckResult{IsDuplicate: false}
	}

	// The caller abandoned the capture while the check was in flight; drop
	// the late result and leave the cache untouched.
	if ctx.Err() != nil {
		return models.DuplicateCheckResult{IsDuplicate: false}
	}

	if result.IsDuplicate && result.ExistingReceiptID != "" {
		r.cache.Put(hash, result.ExistingReceiptID)
	}
	return result
}

// RecordAccepted registers an accepted capture's fingerprint so an immediate
// re-capture of the same receipt resolves locally as an exact duplicate.
func (r *Resolver) RecordAccepted(hash models.PerceptualHash, receiptID string) {
	if receiptID == "" {
		return
	}
	r.cache.Put(hash, receiptID)
}
