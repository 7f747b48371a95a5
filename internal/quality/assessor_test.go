package quality

import (
	"image"
	"image/color"
	"testing"

	"go-receipt-capture/pkg/models"
)

// createTestImage creates a uniform test image.
func createTestImage(width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

// createSplitImage creates an image with a hard vertical edge down the middle.
func createSplitImage(width, height int, left, right color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, right)
			}
		}
	}
	return img
}

func hasFeedback(result models.QualityResult, message string) bool {
	for _, item := range result.Feedback {
		if item.Message == message {
			return true
		}
	}
	return false
}

func TestAssess_FlatImage(t *testing.T) {
	assessor := NewAssessor()
	img := createTestImage(200, 200, color.RGBA{128, 128, 128, 255})

	result := assessor.Assess(img)

	if result.Sharpness != 0 {
		t.Errorf("Expected zero sharpness for flat image, got %f", result.Sharpness)
	}
	if result.Contrast != 0 {
		t.Errorf("Expected zero contrast for flat image, got %f", result.Contrast)
	}
	if result.IsAcceptable {
		t.Error("Expected flat image to be unacceptable")
	}
	if !hasFeedback(result, "Hold steady") {
		t.Errorf("Expected critical sharpness feedback, got %+v", result.Feedback)
	}
}

func TestAssess_SharpHighContrast(t *testing.T) {
	assessor := NewAssessor()
	img := createSplitImage(200, 200, color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255})

	result := assessor.Assess(img)

	if result.Sharpness < 0.5 {
		t.Errorf("Expected high sharpness for hard edge, got %f", result.Sharpness)
	}
	if result.Contrast < 0.9 {
		t.Errorf("Expected near-full contrast, got %f", result.Contrast)
	}
	if !result.IsAcceptable {
		t.Errorf("Expected sharp high-contrast image to be acceptable, score %d", result.OverallScore)
	}
}

func TestAssess_TooBright(t *testing.T) {
	assessor := NewAssessor()
	img := createTestImage(200, 200, color.RGBA{250, 250, 250, 255})

	result := assessor.Assess(img)

	if result.Brightness < 0.9 {
		t.Errorf("Expected high brightness, got %f", result.Brightness)
	}
	if !hasFeedback(result, "Too bright") {
		t.Errorf("Expected too-bright feedback, got %+v", result.Feedback)
	}
	if result.IsAcceptable {
		t.Error("Expected blown-out flat image to be unacceptable")
	}
}

func TestAssess_TooDark(t *testing.T) {
	assessor := NewAssessor()
	img := createTestImage(200, 200, color.RGBA{20, 20, 20, 255})

	result := assessor.Assess(img)

	if !hasFeedback(result, "Too dark") {
		t.Errorf("Expected too-dark feedback, got %+v", result.Feedback)
	}
}

func TestAssess_UnevenLighting(t *testing.T) {
	assessor := NewAssessor()
	// Bright left half, dim right half; the mean stays inside the normal
	// brightness band so the unevenness is what gets reported.
	img := createSplitImage(200, 200, color.RGBA{230, 230, 230, 255}, color.RGBA{60, 60, 60, 255})

	result := assessor.Assess(img)

	if !hasFeedback(result, "Uneven lighting") {
		t.Errorf("Expected uneven-lighting feedback, got %+v", result.Feedback)
	}
}

func TestAssess_ScoreClamped(t *testing.T) {
	assessor := NewAssessor()
	img := createSplitImage(400, 400, color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255})

	result := assessor.Assess(img)

	if result.OverallScore < 0 || result.OverallScore > 100 {
		t.Errorf("Score outside [0,100]: %d", result.OverallScore)
	}
	if result.Sharpness < 0 || result.Sharpness > 1 {
		t.Errorf("Sharpness outside [0,1]: %f", result.Sharpness)
	}
	if result.Contrast < 0 || result.Contrast > 1 {
		t.Errorf("Contrast outside [0,1]: %f", result.Contrast)
	}
}

func TestAssess_NilImage(t *testing.T) {
	assessor := NewAssessor()

	result := assessor.Assess(nil)

	if result.IsAcceptable {
		t.Error("Expected nil image to be unacceptable")
	}
	if result.OverallScore != 0 {
		t.Errorf("Expected zero score for nil image, got %d", result.OverallScore)
	}
	if len(result.Feedback) == 0 {
		t.Error("Expected degraded result to carry feedback")
	}
}

func TestAssess_SmallImage(t *testing.T) {
	assessor := NewAssessor()
	img := createTestImage(2, 2, color.RGBA{128, 128, 128, 255})

	// Too small for the Laplacian patch; must still return a valid result.
	result := assessor.Assess(img)

	if result.Sharpness != 0 {
		t.Errorf("Expected zero sharpness for 2x2 image, got %f", result.Sharpness)
	}
	if result.OverallScore < 0 || result.OverallScore > 100 {
		t.Errorf("Score outside [0,100]: %d", result.OverallScore)
	}
}
