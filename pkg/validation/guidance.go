// Package validation holds the decision tables for capture guidance and
// quality feedback. Rules are kept as explicit ordered lists so each table can
// be exercised in isolation.
package validation

import "go-receipt-capture/pkg/models"

// GlareSignals are the inputs to guidance selection, produced per frame by
// the glare analyzer.
type GlareSignals struct {
	Severity      float64
	WholeRatio    float64 // fraction of all grid samples flagged as glare
	TextAreaRatio float64 // fraction of text-area samples flagged; 0 without a boundary
	HasTextArea   bool
}

// GuidanceRule maps a predicate over glare signals to the guidance shown to
// the user. Rules are evaluated in order; the first match wins.
type GuidanceRule struct {
	Name     string
	Applies  func(GlareSignals) bool
	Guidance models.Guidance
}

// Guidance selection thresholds.
const (
	GlareWarningThreshold  = 0.15
	GlareBlockingThreshold = 0.35
	WholeFrameGlareRatio   = 0.15
)

// GuidanceRules returns the ordered guidance decision table.
func GuidanceRules() []GuidanceRule {
	return []GuidanceRule{
		{
			Name:     "no_glare",
			Applies:  func(s GlareSignals) bool { return s.Severity < GlareWarningThreshold },
			Guidance: models.GuidanceNone,
		},
		{
			Name:     "severe_glare",
			Applies:  func(s GlareSignals) bool { return s.Severity >= GlareBlockingThreshold },
			Guidance: models.GuidanceSevereGlare,
		},
		{
			Name:     "glare_on_text",
			Applies:  func(s GlareSignals) bool { return s.HasTextArea && s.TextAreaRatio > 0 },
			Guidance: models.GuidanceTiltReceipt,
		},
		{
			Name:     "bright_whole_frame",
			Applies:  func(s GlareSignals) bool { return s.WholeRatio > WholeFrameGlareRatio },
			Guidance: models.GuidanceMoveLight,
		},
	}
}

// SelectGuidance evaluates the rule table and returns the first matching
// guidance, falling back to AdjustAngle when no rule applies.
func SelectGuidance(s GlareSignals) models.Guidance {
	for _, rule := range GuidanceRules() {
		if rule.Applies(s) {
			return rule.Guidance
		}
	}
	return models.GuidanceAdjustAngle
}
