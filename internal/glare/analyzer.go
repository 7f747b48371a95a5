// Package glare detects overexposed regions that would obscure receipt text
// in a live camera feed.
package glare

import (
	"sync"
	"time"

	"go-receipt-capture/internal/sampler"
	"go-receipt-capture/pkg/models"
	"go-receipt-capture/pkg/validation"
)

const (
	// Overexposure predicate thresholds. The per-channel check catches
	// near-white saturation that the weighted luminance can average away.
	overexposedLuminance = 0.92
	saturatedChannel     = 0.95

	// Severity weighting
	wholeFrameWeight   = 0.40
	textAreaWeight     = 0.45
	clusterCountWeight = 0.15
	clusterCountScale  = 5.0

	// Fraction of text-area samples that blocks auto-capture.
	blockingTextRatio = 0.10

	// Regions smaller than this fraction of frame area are sensor noise.
	minRegionArea = 0.008

	defaultGridSize = 40
	defaultInterval = 50 * time.Millisecond
)

// Config controls grid resolution and the live-path analysis cooldown. The
// clock is injectable so tests can advance time without real delays.
type Config struct {
	GridSize int
	Interval time.Duration
	Now      func() time.Time
}

// Analyzer flags overexposed regions and derives user guidance. Safe for use
// from a single frame-delivery goroutine; the internal lock only guards the
// cached previous result.
type Analyzer struct {
	gridSize int
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	last    models.GlareResult
	lastAt  time.Time
	hasLast bool
}

// NewAnalyzer creates a glare analyzer. Zero-value config fields fall back to
// the production defaults (40x40 grid, 50ms cooldown, wall clock).
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.GridSize <= 0 {
		cfg.GridSize = defaultGridSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Analyzer{
		gridSize: cfg.GridSize,
		interval: cfg.Interval,
		now:      cfg.Now,
	}
}

// AnalyzeFrame analyzes one live frame, honoring the cooldown: calls landing
// inside the cooldown window return the previous result unchanged. boundary,
// when non-nil, is the detected receipt rectangle used for text-area
// weighting; its absence means whole-frame-only analysis.
func (a *Analyzer) AnalyzeFrame(frame sampler.Frame, boundary *models.Rect) models.GlareResult {
	now := a.now()

	a.mu.Lock()
	if a.hasLast && now.Sub(a.lastAt) < a.interval {
		result := a.last
		a.mu.Unlock()
		return result
	}
	a.mu.Unlock()

	result := a.Analyze(frame, boundary)

	a.mu.Lock()
	a.last = result
	a.lastAt = now
	a.hasLast = true
	a.mu.Unlock()

	return result
}

// LastResult returns the most recent result, if any. The capture controller
// uses it to decide whether to discourage auto-capture.
func (a *Analyzer) LastResult() (models.GlareResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.hasLast
}

// Analyze runs a full pass without the cooldown. Empty frames yield the
// neutral result rather than an error.
func (a *Analyzer) Analyze(frame sampler.Frame, boundary *models.Rect) models.GlareResult {
	if frame.Empty() {
		return models.GlareResult{Guidance: models.GuidanceNone}
	}

	stepX, stepY := frame.GridStep(a.gridSize)

	var total, flagged, textTotal, textFlagged int
	var points []sampler.Sample

	frame.EachGridSample(a.gridSize, func(s sampler.Sample) bool {
		total++
		inText := boundary != nil && boundary.Contains(s.NormX, s.NormY)
		if inText {
			textTotal++
		}
		if isOverexposed(s) {
			flagged++
			points = append(points, s)
			if inText {
				textFlagged++
			}
		}
		return true
	})

	if total == 0 {
		return models.GlareResult{Guidance: models.GuidanceNone}
	}

	wholeRatio := float64(flagged) / float64(total)
	textRatio := 0.0
	if textTotal > 0 {
		textRatio = float64(textFlagged) / float64(textTotal)
	}

	regions := clusterRegions(points, frame, stepX, stepY)

	clusterTerm := float64(len(regions)) / clusterCountScale
	if clusterTerm > 1 {
		clusterTerm = 1
	}

	severity := wholeRatio*3*wholeFrameWeight + textRatio*2*textAreaWeight + clusterTerm*clusterCountWeight
	if severity < 0 {
		severity = 0
	} else if severity > 1 {
		severity = 1
	}

	signals := validation.GlareSignals{
		Severity:      severity,
		WholeRatio:    wholeRatio,
		TextAreaRatio: textRatio,
		HasTextArea:   boundary != nil,
	}

	return models.GlareResult{
		HasGlare:           severity >= validation.GlareWarningThreshold,
		Severity:           severity,
		Regions:            regions,
		AffectedPercentage: wholeRatio * 100,
		Guidance:           validation.SelectGuidance(signals),
		IsBlockingText:     textRatio > blockingTextRatio,
	}
}

func isOverexposed(s sampler.Sample) bool {
	if s.Luminance > overexposedLuminance {
		return true
	}
	return s.R > saturatedChannel && s.G > saturatedChannel && s.B > saturatedChannel
}

// cluster accumulates flagged grid points into a pixel-space bounding box.
type cluster struct {
	minX, minY, maxX, maxY int
	count                  int
}

func (c *cluster) near(s sampler.Sample, dx, dy int) bool {
	return s.X >= c.minX-dx && s.X <= c.maxX+dx &&
		s.Y >= c.minY-dy && s.Y <= c.maxY+dy
}

func (c *cluster) add(s sampler.Sample) {
	if s.X < c.minX {
		c.minX = s.X
	}
	if s.X > c.maxX {
		c.maxX = s.X
	}
	if s.Y < c.minY {
		c.minY = s.Y
	}
	if s.Y > c.maxY {
		c.maxY = s.Y
	}
	c.count++
}

// clusterRegions groups flagged points whose axis deltas fall within twice
// the grid step, then converts clusters of at least two points into
// normalized rectangles, dropping those below the minimum area.
func clusterRegions(points []sampler.Sample, frame sampler.Frame, stepX, stepY int) []models.Rect {
	if len(points) == 0 {
		return nil
	}

	joinX, joinY := 2*stepX, 2*stepY
	var clusters []*cluster

	for _, p := range points {
		var home *cluster
		for _, c := range clusters {
			if c.near(p, joinX, joinY) {
				home = c
				break
			}
		}
		if home == nil {
			clusters = append(clusters, &cluster{
				minX: p.X, minY: p.Y, maxX: p.X, maxY: p.Y, count: 1,
			})
			continue
		}
		home.add(p)
	}

	w := float64(frame.Width)
	h := float64(frame.Height)
	var regions []models.Rect
	for _, c := range clusters {
		if c.count < 2 {
			continue
		}
		// Each grid point covers one step cell; extend the box accordingly.
		rect := models.Rect{
			X:      float64(c.minX) / w,
			Y:      float64(c.minY) / h,
			Width:  float64(c.maxX-c.minX+stepX) / w,
			Height: float64(c.maxY-c.minY+stepY) / h,
		}
		if rect.Width > 1 {
			rect.Width = 1
		}
		if rect.Height > 1 {
			rect.Height = 1
		}
		if rect.Area() < minRegionArea {
			continue
		}
		regions = append(regions, rect)
	}
	return regions
}
