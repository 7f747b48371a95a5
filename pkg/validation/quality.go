package validation

import "go-receipt-capture/pkg/models"

// QualityThresholds defines the fixed cutoffs used for scoring and feedback.
type QualityThresholds struct {
	// Sharpness (normalized Laplacian variance, [0,1])
	CriticalSharpness float64
	WarningSharpness  float64
	EscapeSharpness   float64 // floor for the acceptability escape hatch

	// Brightness (mean luminance, [0,1])
	MinBrightness     float64
	MaxBrightness     float64
	GoodBrightnessLow float64
	GoodBrightnessHi  float64
	EscapeDarkLimit   float64
	EscapeBrightLimit float64

	// Contrast (luminance max-min, [0,1])
	LowContrast float64

	// Composite score
	MinAcceptableScore int
}

// DefaultQualityThresholds returns the thresholds used in production.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		CriticalSharpness:  0.3,
		WarningSharpness:   0.5,
		EscapeSharpness:    0.4,
		MinBrightness:      0.2,
		MaxBrightness:      0.9,
		GoodBrightnessLow:  0.35,
		GoodBrightnessHi:   0.75,
		EscapeDarkLimit:    0.25,
		EscapeBrightLimit:  0.85,
		LowContrast:        0.3,
		MinAcceptableScore: 45,
	}
}

// CompositeScore folds the three quality dimensions into a 0-100 score.
// Sharpness contributes up to 40 points, brightness a banded 0/20/35, and
// contrast up to 25.
func (t QualityThresholds) CompositeScore(sharpness, brightness, contrast float64) int {
	score := sharpness * 40

	switch {
	case brightness >= t.GoodBrightnessLow && brightness <= t.GoodBrightnessHi:
		score += 35
	case brightness >= t.MinBrightness && brightness <= t.MaxBrightness:
		score += 20
	}

	score += contrast * 25

	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return int(score)
}

// IsAcceptable applies the acceptability invariant: a capture passes on
// composite score alone, or via the escape hatch for sharp, well-lit images
// that scored low on other dimensions.
func (t QualityThresholds) IsAcceptable(score int, sharpness, brightness float64) bool {
	if score >= t.MinAcceptableScore {
		return true
	}
	return sharpness >= t.EscapeSharpness &&
		brightness >= t.EscapeDarkLimit && brightness <= t.EscapeBrightLimit
}

// BuildFeedback assembles the per-dimension feedback list. Each dimension is
// evaluated independently against its fixed thresholds.
func (t QualityThresholds) BuildFeedback(sharpness, brightness, contrast float64, unevenLighting bool) []models.FeedbackItem {
	var feedback []models.FeedbackItem

	switch {
	case sharpness < t.CriticalSharpness:
		feedback = append(feedback, models.FeedbackItem{
			Category: models.FeedbackSharpness,
			Message:  "Hold steady",
			Severity: models.SeverityCritical,
		})
	case sharpness < t.WarningSharpness:
		feedback = append(feedback, models.FeedbackItem{
			Category: models.FeedbackSharpness,
			Message:  "Slightly blurry",
			Severity: models.SeverityWarning,
		})
	}

	switch {
	case brightness < t.EscapeDarkLimit:
		feedback = append(feedback, models.FeedbackItem{
			Category: models.FeedbackBrightness,
			Message:  "Too dark",
			Severity: models.SeverityWarning,
		})
	case brightness > t.EscapeBrightLimit:
		feedback = append(feedback, models.FeedbackItem{
			Category: models.FeedbackBrightness,
			Message:  "Too bright",
			Severity: models.SeverityWarning,
		})
	case unevenLighting:
		feedback = append(feedback, models.FeedbackItem{
			Category: models.FeedbackBrightness,
			Message:  "Uneven lighting",
			Severity: models.SeverityWarning,
		})
	case brightness >= t.GoodBrightnessLow && brightness <= t.GoodBrightnessHi:
		feedback = append(feedback, models.FeedbackItem{
			Category: models.FeedbackBrightness,
			Message:  "Good lighting",
			Severity: models.SeverityInfo,
		})
	}

	if contrast < t.LowContrast {
		feedback = append(feedback, models.FeedbackItem{
			Category: models.FeedbackContrast,
			Message:  "Low contrast",
			Severity: models.SeverityWarning,
		})
	}

	return feedback
}
