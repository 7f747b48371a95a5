package models

import "time"

// Guidance tells the user how to correct the framing before capture.
type Guidance string

const (
	GuidanceNone        Guidance = "none"
	GuidanceTiltReceipt Guidance = "tilt_receipt"
	GuidanceMoveLight   Guidance = "move_light"
	GuidanceAdjustAngle Guidance = "adjust_angle"
	GuidanceSevereGlare Guidance = "severe_glare"
)

// Rect is an axis-aligned rectangle in normalized [0,1] frame coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the normalized area of the rectangle.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Contains reports whether the normalized point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// GlareResult is the per-frame glare verdict. Instances are produced fresh per
// frame and never mutated after creation.
type GlareResult struct {
	HasGlare           bool     `json:"has_glare"`
	Severity           float64  `json:"severity"`
	Regions            []Rect   `json:"regions,omitempty"`
	AffectedPercentage float64  `json:"affected_percentage"`
	Guidance           Guidance `json:"guidance"`
	IsBlockingText     bool     `json:"is_blocking_text"`
}

// FeedbackCategory identifies the quality dimension a feedback item refers to.
type FeedbackCategory string

const (
	FeedbackSharpness  FeedbackCategory = "sharpness"
	FeedbackBrightness FeedbackCategory = "brightness"
	FeedbackContrast   FeedbackCategory = "contrast"
)

// FeedbackSeverity grades how actionable a feedback item is.
type FeedbackSeverity string

const (
	SeverityInfo     FeedbackSeverity = "info"
	SeverityWarning  FeedbackSeverity = "warning"
	SeverityCritical FeedbackSeverity = "critical"
)

// FeedbackItem is a single human-readable quality observation.
type FeedbackItem struct {
	Category FeedbackCategory `json:"category"`
	Message  string           `json:"message"`
	Severity FeedbackSeverity `json:"severity"`
}

// QualityResult is the full quality verdict for a captured still.
type QualityResult struct {
	OverallScore int            `json:"overall_score"`
	Sharpness    float64        `json:"sharpness"`
	Brightness   float64        `json:"brightness"`
	Contrast     float64        `json:"contrast"`
	IsAcceptable bool           `json:"is_acceptable"`
	Feedback     []FeedbackItem `json:"feedback,omitempty"`
}

// HashKind distinguishes the two fingerprint flavors the hasher can produce.
// Average hashes tolerate recompression and resizing; byte digests (the
// fallback for undecodable input) only ever match exactly.
type HashKind string

const (
	HashKindAverage    HashKind = "average"
	HashKindByteDigest HashKind = "byte_digest"
)

// PerceptualHash is a compact 64-bit image fingerprint. Two hashes are
// comparable only when they share the same Kind and thumbnail Size.
type PerceptualHash struct {
	Bits uint64   `json:"bits,string"`
	Size int      `json:"size"`
	Kind HashKind `json:"kind"`
}

// MatchType classifies how a duplicate was identified.
type MatchType string

const (
	MatchExactHash      MatchType = "exact_hash"
	MatchSimilarImage   MatchType = "similar_image"
	MatchSameAmountDate MatchType = "same_amount_date"
	MatchAlreadyLinked  MatchType = "already_linked"
)

// DuplicateCheckResult is the outcome of duplicate resolution for a capture.
type DuplicateCheckResult struct {
	IsDuplicate       bool      `json:"is_duplicate"`
	ExistingReceiptID string    `json:"existing_receipt_id,omitempty"`
	MatchConfidence   float64   `json:"match_confidence"`
	MatchType         MatchType `json:"match_type,omitempty"`
}

// ReceiptMetadata carries the fields extracted from a receipt that the remote
// duplicate check can correlate on. All fields are optional.
type ReceiptMetadata struct {
	Merchant string  `json:"merchant,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Date     string  `json:"date,omitempty"`
}

// CaptureState is the state of the capture flow for a session or capture.
type CaptureState string

const (
	StateIdle                CaptureState = "idle"
	StateLiveGuidance        CaptureState = "live_guidance"
	StateCapturing           CaptureState = "capturing"
	StatePostCaptureAnalysis CaptureState = "post_capture_analysis"
	StateAccepted            CaptureState = "accepted"
	StateRejected            CaptureState = "rejected"
	StateDuplicateFlagged    CaptureState = "duplicate_flagged"
)

// CaptureResult is the terminal outcome of a single capture attempt.
type CaptureResult struct {
	ID         string                `json:"id"`
	State      CaptureState          `json:"state"`
	CapturedAt time.Time             `json:"captured_at"`
	Quality    QualityResult         `json:"quality"`
	Hash       PerceptualHash        `json:"hash"`
	Duplicate  *DuplicateCheckResult `json:"duplicate,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
}

// LiveGuidance is the combined real-time signal produced per offered frame.
type LiveGuidance struct {
	Glare             GlareResult `json:"glare"`
	PreviewBrightness float64     `json:"preview_brightness"`
	PreviewAcceptable bool        `json:"preview_acceptable"`
	AllowAutoCapture  bool        `json:"allow_auto_capture"`
}
