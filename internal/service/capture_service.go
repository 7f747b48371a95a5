package service

import (
	"context"
	"strings"

	"go-receipt-capture/internal/capture"
	apperrors "go-receipt-capture/internal/errors"
	"go-receipt-capture/internal/sampler"
	"go-receipt-capture/pkg/models"
)

// CaptureService defines the interface for frame guidance and capture processing
type CaptureService interface {
	// Live path
	AnalyzeFrame(ctx context.Context, request models.FrameAnalysisRequest) (*models.LiveGuidance, error)

	// Capture path
	Capture(ctx context.Context, imageBytes []byte, meta *models.ReceiptMetadata) (*models.CaptureResult, error)
	ResolveDuplicate(ctx context.Context, captureID string, keep bool) (*models.CaptureResult, error)

	// Session state
	State() models.CaptureState
}

// captureService implements CaptureService on top of the capture controller
type captureService struct {
	controller *capture.Controller
}

// NewCaptureService creates a new capture service
func NewCaptureService(controller *capture.Controller) CaptureService {
	return &captureService{controller: controller}
}

// AnalyzeFrame validates and converts a frame payload, then runs live
// guidance on it.
func (s *captureService) AnalyzeFrame(ctx context.Context, request models.FrameAnalysisRequest) (*models.LiveGuidance, error) {
	frame, err := frameFromRequest(request)
	if err != nil {
		return nil, err
	}

	guidance := s.controller.OfferFrame(frame, request.Boundary)
	return &guidance, nil
}

// Capture runs post-capture analysis on an encoded still.
func (s *captureService) Capture(ctx context.Context, imageBytes []byte, meta *models.ReceiptMetadata) (*models.CaptureResult, error) {
	if len(imageBytes) == 0 {
		return nil, apperrors.NewValidationError("image payload is empty", nil)
	}

	result, err := s.controller.Capture(ctx, imageBytes, meta)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ResolveDuplicate settles a pending duplicate decision.
func (s *captureService) ResolveDuplicate(ctx context.Context, captureID string, keep bool) (*models.CaptureResult, error) {
	if strings.TrimSpace(captureID) == "" {
		return nil, apperrors.NewValidationError("capture id is required", nil)
	}

	result, err := s.controller.ResolveDuplicate(ctx, captureID, keep)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// State returns the controller's current session state.
func (s *captureService) State() models.CaptureState {
	return s.controller.State()
}

// frameFromRequest converts the wire payload into a sampler frame, checking
// that the pixel buffer actually covers the declared geometry.
func frameFromRequest(request models.FrameAnalysisRequest) (sampler.Frame, error) {
	if request.Width <= 0 || request.Height <= 0 {
		return sampler.Frame{}, apperrors.NewValidationError("frame dimensions must be positive", nil)
	}

	stride := request.Stride
	if stride == 0 {
		stride = request.Width * 4
	}
	if stride < request.Width*4 {
		return sampler.Frame{}, apperrors.NewValidationError("stride is smaller than one row of pixels", nil)
	}
	if len(request.Pixels) < stride*(request.Height-1)+request.Width*4 {
		return sampler.Frame{}, apperrors.NewValidationError("pixel buffer is shorter than the declared frame", nil)
	}

	order := sampler.OrderRGBA
	switch strings.ToLower(request.Order) {
	case "", "rgba":
	case "bgra":
		order = sampler.OrderBGRA
	default:
		return sampler.Frame{}, apperrors.NewValidationError("unsupported channel order "+request.Order, nil)
	}

	if request.Boundary != nil {
		b := request.Boundary
		if b.X < 0 || b.Y < 0 || b.Width <= 0 || b.Height <= 0 || b.X+b.Width > 1 || b.Y+b.Height > 1 {
			return sampler.Frame{}, apperrors.NewValidationError("boundary must be a normalized rectangle inside the frame", nil)
		}
	}

	return sampler.Frame{
		Pix:    request.Pixels,
		Width:  request.Width,
		Height: request.Height,
		Stride: stride,
		Order:  order,
	}, nil
}
