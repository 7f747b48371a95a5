// Package quality scores captured stills on sharpness, lighting, and
// contrast, and provides a cheap live-preview variant for the camera path.
package quality

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"go-receipt-capture/internal/sampler"
	"go-receipt-capture/pkg/models"
	"go-receipt-capture/pkg/validation"
)

const (
	// Central patch edge for the Laplacian sharpness pass.
	sharpnessPatchSize = 64
	// Empirically, sharp captures exceed a Laplacian variance of 500 and
	// blurry ones fall below 100 on the 0-255 scale; dividing by 1000 maps
	// that range into [0,1].
	sharpnessVarianceScale = 1000.0

	lightingGridSize = 8
	unevenLightDelta = 0.2

	contrastSampleBudget = 10000
)

// Assessor produces the full quality verdict for a captured still. It is
// stateless and safe for concurrent use.
type Assessor struct {
	thresholds validation.QualityThresholds
}

// NewAssessor creates an assessor with the production thresholds.
func NewAssessor() *Assessor {
	return &Assessor{thresholds: validation.DefaultQualityThresholds()}
}

// Assess runs the full quality pass. Nil or empty images degrade to a
// low-but-valid result instead of an error; quality is advisory and must
// never abort a capture.
func (a *Assessor) Assess(img image.Image) models.QualityResult {
	frame := sampler.FromImage(img)
	return a.AssessFrame(frame)
}

// AssessFrame is Assess for callers that already hold a raw frame.
func (a *Assessor) AssessFrame(frame sampler.Frame) models.QualityResult {
	if frame.Empty() {
		return a.buildResult(0, 0, 0, false)
	}

	sharpness := a.measureSharpness(frame)
	brightness, uneven := a.measureLighting(frame)
	contrast := a.measureContrast(frame)

	return a.buildResult(sharpness, brightness, contrast, uneven)
}

func (a *Assessor) buildResult(sharpness, brightness, contrast float64, uneven bool) models.QualityResult {
	score := a.thresholds.CompositeScore(sharpness, brightness, contrast)
	return models.QualityResult{
		OverallScore: score,
		Sharpness:    sharpness,
		Brightness:   brightness,
		Contrast:     contrast,
		IsAcceptable: a.thresholds.IsAcceptable(score, sharpness, brightness),
		Feedback:     a.thresholds.BuildFeedback(sharpness, brightness, contrast, uneven),
	}
}

// measureSharpness applies the Laplacian kernel [0,1,0;1,-4,1;0,1,0] to a
// central patch and normalizes the variance of the filtered values.
func (a *Assessor) measureSharpness(frame sampler.Frame) float64 {
	half := sharpnessPatchSize / 2
	x0, x1 := frame.Width/2-half, frame.Width/2+half
	y0, y1 := frame.Height/2-half, frame.Height/2+half
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > frame.Width {
		x1 = frame.Width
	}
	if y1 > frame.Height {
		y1 = frame.Height
	}

	pw, ph := x1-x0, y1-y0
	if pw < 3 || ph < 3 {
		return 0
	}

	// Luminance on the 0-255 scale, matching the variance calibration.
	patch := make([]float64, pw*ph)
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			patch[y*pw+x] = frame.At(x0+x, y0+y).Luminance * 255
		}
	}

	filtered := make([]float64, 0, (pw-2)*(ph-2))
	for y := 1; y < ph-1; y++ {
		for x := 1; x < pw-1; x++ {
			center := patch[y*pw+x]
			lap := -4*center + patch[(y-1)*pw+x] + patch[(y+1)*pw+x] +
				patch[y*pw+x-1] + patch[y*pw+x+1]
			filtered = append(filtered, lap)
		}
	}
	if len(filtered) == 0 {
		return 0
	}

	sharpness := stat.Variance(filtered, nil) / sharpnessVarianceScale
	if sharpness < 0 {
		sharpness = 0
	} else if sharpness > 1 {
		sharpness = 1
	}
	return sharpness
}

// measureLighting samples a coarse 8x8 grid, returning mean brightness and
// whether the top/bottom or left/right halves differ enough to count as
// uneven lighting.
func (a *Assessor) measureLighting(frame sampler.Frame) (brightness float64, uneven bool) {
	var total, top, bottom, left, right float64
	var n, topN, bottomN, leftN, rightN int

	frame.EachGridSample(lightingGridSize, func(s sampler.Sample) bool {
		total += s.Luminance
		n++
		if s.NormY < 0.5 {
			top += s.Luminance
			topN++
		} else {
			bottom += s.Luminance
			bottomN++
		}
		if s.NormX < 0.5 {
			left += s.Luminance
			leftN++
		} else {
			right += s.Luminance
			rightN++
		}
		return true
	})

	if n == 0 {
		return 0, false
	}
	brightness = total / float64(n)

	if topN > 0 && bottomN > 0 &&
		math.Abs(top/float64(topN)-bottom/float64(bottomN)) > unevenLightDelta {
		uneven = true
	}
	if leftN > 0 && rightN > 0 &&
		math.Abs(left/float64(leftN)-right/float64(rightN)) > unevenLightDelta {
		uneven = true
	}
	return brightness, uneven
}

// measureContrast scans luminance within a fixed sample budget and returns
// the max-min spread.
func (a *Assessor) measureContrast(frame sampler.Frame) float64 {
	step := int(math.Sqrt(float64(frame.Width*frame.Height) / contrastSampleBudget))
	if step < 1 {
		step = 1
	}

	minLum, maxLum := 1.0, 0.0
	for y := 0; y < frame.Height; y += step {
		for x := 0; x < frame.Width; x += step {
			lum := frame.At(x, y).Luminance
			if lum < minLum {
				minLum = lum
			}
			if lum > maxLum {
				maxLum = lum
			}
		}
	}

	contrast := maxLum - minLum
	if contrast < 0 {
		contrast = 0
	}
	return contrast
}
