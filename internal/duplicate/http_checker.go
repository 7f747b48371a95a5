package duplicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-receipt-capture/pkg/models"
)

// ErrUnavailable indicates the remote duplicate-check service cannot answer:
// network failure, timeout, or a deployment without the endpoint. Callers
// treat all of these identically (fail open).
var ErrUnavailable = errors.New("duplicate-check service unavailable")

// CheckRequest is the payload sent to the remote duplicate-check service.
type CheckRequest struct {
	Hash     models.PerceptualHash
	Metadata *models.ReceiptMetadata
}

// Checker asks an external service whether a fingerprint duplicates a known
// receipt. Implementations must respect the context deadline.
type Checker interface {
	Check(ctx context.Context, req CheckRequest) (models.DuplicateCheckResult, error)
}

type checkWire struct {
	ImageHash string  `json:"imageHash"`
	Amount    float64 `json:"amount,omitempty"`
	Date      string  `json:"date,omitempty"`
	Merchant  string  `json:"merchant,omitempty"`
}

type checkResponseWire struct {
	IsDuplicate       bool    `json:"isDuplicate"`
	ExistingReceiptID string  `json:"existingReceiptId,omitempty"`
	MatchConfidence   float64 `json:"matchConfidence,omitempty"`
	MatchType         string  `json:"matchType,omitempty"`
}

// HTTPChecker calls the remote duplicate-check endpoint over HTTP.
type HTTPChecker struct {
	baseURL string
	client  *http.Client
}

// NewHTTPChecker creates a checker for the service rooted at baseURL. The
// client timeout is a hard upper bound; per-call deadlines come from the
// request context.
func NewHTTPChecker(baseURL string, timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &HTTPChecker{
		baseURL: baseURL,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Check posts the fingerprint and optional metadata to the remote service.
// Missing endpoints (404) and unimplemented responses (501) are reported as
// ErrUnavailable, the same as any network failure.
func (h *HTTPChecker) Check(ctx context.Context, req CheckRequest) (models.DuplicateCheckResult, error) {
	wire := checkWire{ImageHash: strconv.FormatUint(req.Hash.Bits, 10)}
	if req.Metadata != nil {
		wire.Amount = req.Metadata.Amount
		wire.Date = req.Metadata.Date
		wire.Merchant = req.Metadata.Merchant
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return models.DuplicateCheckResult{}, fmt.Errorf("encoding duplicate-check request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/duplicates/check", bytes.NewReader(body))
	if err != nil {
		return models.DuplicateCheckResult{}, fmt.Errorf("building duplicate-check request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return models.DuplicateCheckResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNotImplemented:
		return models.DuplicateCheckResult{}, ErrUnavailable
	default:
		return models.DuplicateCheckResult{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out checkResponseWire
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.DuplicateCheckResult{}, fmt.Errorf("decoding duplicate-check response: %w", err)
	}

	return models.DuplicateCheckResult{
		IsDuplicate:       out.IsDuplicate,
		ExistingReceiptID: out.ExistingReceiptID,
		MatchConfidence:   out.MatchConfidence,
		MatchType:         parseMatchType(out.MatchType, out.IsDuplicate),
	}, nil
}

// parseMatchType maps the service's match type string; unknown values on a
// positive match default to SimilarImage since the service, not the client,
// owns similarity semantics.
func parseMatchType(raw string, isDuplicate bool) models.MatchType {
	switch models.MatchType(raw) {
	case models.MatchExactHash, models.MatchSimilarImage, models.MatchSameAmountDate, models.MatchAlreadyLinked:
		return models.MatchType(raw)
	}
	if isDuplicate {
		return models.MatchSimilarImage
	}
	return ""
}

// disabledChecker is used when no duplicate-check service is configured; the
// resolver fails open on the ErrUnavailable it returns.
type disabledChecker struct{}

// NewDisabledChecker returns a Checker that always reports the service as
// unavailable.
func NewDisabledChecker() Checker {
	return disabledChecker{}
}

func (disabledChecker) Check(context.Context, CheckRequest) (models.DuplicateCheckResult, error) {
	return models.DuplicateCheckResult{}, ErrUnavailable
}
