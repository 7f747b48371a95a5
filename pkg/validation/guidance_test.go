package validation

import (
	"testing"

	"go-receipt-capture/pkg/models"
)

func TestSelectGuidance(t *testing.T) {
	testCases := []struct {
		name     string
		signals  GlareSignals
		expected models.Guidance
	}{
		{
			name:     "clean frame",
			signals:  GlareSignals{Severity: 0.0},
			expected: models.GuidanceNone,
		},
		{
			name:     "just below warning threshold",
			signals:  GlareSignals{Severity: 0.149, WholeRatio: 0.3},
			expected: models.GuidanceNone,
		},
		{
			name:     "severe glare wins over text area",
			signals:  GlareSignals{Severity: 0.6, TextAreaRatio: 0.5, HasTextArea: true},
			expected: models.GuidanceSevereGlare,
		},
		{
			name:     "exactly at blocking threshold",
			signals:  GlareSignals{Severity: 0.35},
			expected: models.GuidanceSevereGlare,
		},
		{
			name:     "glare on text area",
			signals:  GlareSignals{Severity: 0.2, TextAreaRatio: 0.05, HasTextArea: true},
			expected: models.GuidanceTiltReceipt,
		},
		{
			name:     "bright whole frame without boundary",
			signals:  GlareSignals{Severity: 0.2, WholeRatio: 0.2},
			expected: models.GuidanceMoveLight,
		},
		{
			name:     "moderate glare fallback",
			signals:  GlareSignals{Severity: 0.2, WholeRatio: 0.1},
			expected: models.GuidanceAdjustAngle,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectGuidance(tc.signals); got != tc.expected {
				t.Errorf("Expected guidance %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestGuidanceRules_Ordering(t *testing.T) {
	rules := GuidanceRules()
	if len(rules) != 4 {
		t.Fatalf("Expected 4 ordered rules, got %d", len(rules))
	}
	if rules[0].Name != "no_glare" {
		t.Errorf("Expected no_glare rule first, got %q", rules[0].Name)
	}
	if rules[1].Name != "severe_glare" {
		t.Errorf("Expected severe_glare rule second, got %q", rules[1].Name)
	}
}
