package quality

import (
	"sync"
	"time"

	"go-receipt-capture/internal/sampler"
)

const (
	previewGridSize = 16
	// Mean adjacent-sample luminance delta below this means the preview has
	// no discernible structure (defocused or covered lens).
	minPreviewGradient = 0.02

	previewMinBrightness = 0.2
	previewMaxBrightness = 0.9

	defaultPreviewInterval = 50 * time.Millisecond
)

// LivePreview is the cheap acceptability signal for the camera preview. It
// deliberately omits the full feedback list; the live loop only needs a
// boolean and the raw brightness for the UI meter.
type LivePreview struct {
	Brightness float64 `json:"brightness"`
	Gradient   float64 `json:"gradient"`
	Acceptable bool    `json:"acceptable"`
}

// MonitorConfig controls the live-preview cooldown; the clock is injectable
// for tests.
type MonitorConfig struct {
	Interval time.Duration
	Now      func() time.Time
}

// LiveMonitor computes LivePreview signals on the frame-delivery path under
// the same 20Hz budget as glare analysis. Calls inside the cooldown window
// return the previous preview unchanged.
type LiveMonitor struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	last    LivePreview
	lastAt  time.Time
	hasLast bool
}

// NewLiveMonitor creates a live-preview monitor with the given cooldown
// configuration. Zero values fall back to 50ms and the wall clock.
func NewLiveMonitor(cfg MonitorConfig) *LiveMonitor {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPreviewInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LiveMonitor{interval: cfg.Interval, now: cfg.Now}
}

// CheckFrame evaluates one live frame, honoring the cooldown.
func (m *LiveMonitor) CheckFrame(frame sampler.Frame) LivePreview {
	now := m.now()

	m.mu.Lock()
	if m.hasLast && now.Sub(m.lastAt) < m.interval {
		preview := m.last
		m.mu.Unlock()
		return preview
	}
	m.mu.Unlock()

	preview := m.check(frame)

	m.mu.Lock()
	m.last = preview
	m.lastAt = now
	m.hasLast = true
	m.mu.Unlock()

	return preview
}

func (m *LiveMonitor) check(frame sampler.Frame) LivePreview {
	if frame.Empty() {
		return LivePreview{}
	}

	var total float64
	var gradientSum float64
	var n, gradientN int
	prevLum := 0.0
	prevY := -1

	frame.EachGridSample(previewGridSize, func(s sampler.Sample) bool {
		total += s.Luminance
		n++
		if s.Y == prevY {
			gradientSum += abs(s.Luminance - prevLum)
			gradientN++
		}
		prevLum = s.Luminance
		prevY = s.Y
		return true
	})

	if n == 0 {
		return LivePreview{}
	}

	preview := LivePreview{Brightness: total / float64(n)}
	if gradientN > 0 {
		preview.Gradient = gradientSum / float64(gradientN)
	}
	preview.Acceptable = preview.Brightness >= previewMinBrightness &&
		preview.Brightness <= previewMaxBrightness &&
		preview.Gradient >= minPreviewGradient
	return preview
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
