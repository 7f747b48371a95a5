package glare

import (
	"testing"
	"time"

	"go-receipt-capture/internal/sampler"
	"go-receipt-capture/pkg/models"
)

// frameWithColumns builds a raw frame where the leftmost fraction of columns
// is filled with bright, the remainder with rest.
func frameWithColumns(width, height int, fraction float64, bright, rest uint8) sampler.Frame {
	pix := make([]byte, width*height*4)
	split := int(float64(width) * fraction)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := rest
			if x < split {
				v = bright
			}
			off := (y*width + x) * 4
			pix[off] = v
			pix[off+1] = v
			pix[off+2] = v
			pix[off+3] = 255
		}
	}
	return sampler.Frame{Pix: pix, Width: width, Height: height}
}

// fakeClock advances only when told to, so cooldown tests need no sleeps.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestAnalyzer(clock *fakeClock) *Analyzer {
	return NewAnalyzer(Config{Now: clock.Now})
}

func TestAnalyze_UniformMidGray(t *testing.T) {
	analyzer := NewAnalyzer(Config{})
	frame := frameWithColumns(200, 200, 0, 0, 128)

	result := analyzer.Analyze(frame, nil)

	if result.Severity != 0 {
		t.Errorf("Expected zero severity for mid-gray frame, got %f", result.Severity)
	}
	if result.Guidance != models.GuidanceNone {
		t.Errorf("Expected guidance none, got %q", result.Guidance)
	}
	if result.HasGlare {
		t.Error("Expected no glare for mid-gray frame")
	}
	if result.IsBlockingText {
		t.Error("Expected no blocking text glare for mid-gray frame")
	}
}

func TestAnalyze_MajorityBlownOut(t *testing.T) {
	analyzer := NewAnalyzer(Config{})
	frame := frameWithColumns(200, 200, 0.6, 255, 128)

	result := analyzer.Analyze(frame, nil)

	if result.Severity <= 0.35 {
		t.Errorf("Expected severity above blocking threshold, got %f", result.Severity)
	}
	if result.Guidance != models.GuidanceSevereGlare {
		t.Errorf("Expected severe glare guidance, got %q", result.Guidance)
	}
	if !result.HasGlare {
		t.Error("Expected glare to be flagged")
	}
	if result.AffectedPercentage < 50 {
		t.Errorf("Expected affected percentage above 50, got %f", result.AffectedPercentage)
	}
}

func TestAnalyze_BoundaryBlocksText(t *testing.T) {
	analyzer := NewAnalyzer(Config{})
	// 90% of columns blown out, receipt boundary covering the blown area.
	frame := frameWithColumns(200, 200, 0.9, 255, 100)
	boundary := &models.Rect{X: 0, Y: 0, Width: 0.9, Height: 1.0}

	result := analyzer.Analyze(frame, boundary)

	if !result.IsBlockingText {
		t.Error("Expected glare to block text area")
	}
	if result.Guidance != models.GuidanceSevereGlare {
		t.Errorf("Expected severe glare guidance, got %q", result.Guidance)
	}
}

func TestAnalyze_TextAreaGlareGuidance(t *testing.T) {
	analyzer := NewAnalyzer(Config{})
	// A narrow blown stripe inside the boundary: enough for text guidance but
	// below the severe threshold.
	frame := frameWithColumns(200, 200, 0.08, 255, 100)
	boundary := &models.Rect{X: 0, Y: 0, Width: 0.5, Height: 1.0}

	result := analyzer.Analyze(frame, boundary)

	if result.Severity < 0.15 || result.Severity >= 0.35 {
		t.Fatalf("Test setup expects moderate severity, got %f", result.Severity)
	}
	if result.Guidance != models.GuidanceTiltReceipt {
		t.Errorf("Expected tilt receipt guidance, got %q", result.Guidance)
	}
}

func TestAnalyze_RegionsForBlownPatch(t *testing.T) {
	analyzer := NewAnalyzer(Config{})
	frame := frameWithColumns(200, 200, 0.3, 255, 100)

	result := analyzer.Analyze(frame, nil)

	if len(result.Regions) == 0 {
		t.Fatal("Expected at least one glare region")
	}
	for _, r := range result.Regions {
		if r.X < 0 || r.Y < 0 || r.X+r.Width > 1.0001 || r.Y+r.Height > 1.0001 {
			t.Errorf("Region %+v outside normalized bounds", r)
		}
		if r.Area() < 0.008 {
			t.Errorf("Region %+v below minimum area", r)
		}
	}
}

func TestAnalyze_EmptyFrame(t *testing.T) {
	analyzer := NewAnalyzer(Config{})

	result := analyzer.Analyze(sampler.Frame{}, nil)

	if result.HasGlare || result.Severity != 0 {
		t.Errorf("Expected neutral result for empty frame, got %+v", result)
	}
	if result.Guidance != models.GuidanceNone {
		t.Errorf("Expected guidance none for empty frame, got %q", result.Guidance)
	}
}

func TestAnalyzeFrame_Cooldown(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	analyzer := newTestAnalyzer(clock)

	bright := frameWithColumns(200, 200, 1.0, 255, 255)
	dark := frameWithColumns(200, 200, 0, 0, 30)

	first := analyzer.AnalyzeFrame(bright, nil)
	if first.Severity <= 0.35 {
		t.Fatalf("Expected severe glare on first frame, got %f", first.Severity)
	}

	// Within the cooldown window the previous result is returned unchanged.
	clock.Advance(10 * time.Millisecond)
	second := analyzer.AnalyzeFrame(dark, nil)
	if second.Severity != first.Severity {
		t.Errorf("Expected cached result inside cooldown, got severity %f", second.Severity)
	}

	// After the window a fresh analysis runs.
	clock.Advance(60 * time.Millisecond)
	third := analyzer.AnalyzeFrame(dark, nil)
	if third.Severity != 0 {
		t.Errorf("Expected fresh analysis after cooldown, got severity %f", third.Severity)
	}
}

func TestLastResult(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	analyzer := newTestAnalyzer(clock)

	if _, ok := analyzer.LastResult(); ok {
		t.Error("Expected no last result before first frame")
	}

	analyzer.AnalyzeFrame(frameWithColumns(100, 100, 1.0, 255, 255), nil)

	last, ok := analyzer.LastResult()
	if !ok {
		t.Fatal("Expected last result after analysis")
	}
	if !last.HasGlare {
		t.Error("Expected last result to carry glare flag")
	}
}
