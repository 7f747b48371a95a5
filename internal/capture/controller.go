// Package capture orchestrates the receipt capture flow: live guidance while
// the user frames the receipt, post-capture quality and duplicate analysis,
// and resolution of flagged duplicates.
package capture

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-receipt-capture/internal/duplicate"
	apperrors "go-receipt-capture/internal/errors"
	"go-receipt-capture/internal/glare"
	"go-receipt-capture/internal/logger"
	"go-receipt-capture/internal/observer"
	"go-receipt-capture/internal/ocr"
	"go-receipt-capture/internal/phash"
	"go-receipt-capture/internal/quality"
	"go-receipt-capture/internal/sampler"
	"go-receipt-capture/internal/storage"
	"go-receipt-capture/pkg/models"
	"go-receipt-capture/pkg/validation"
)

// Config wires the controller's collaborators. Nil fields fall back to
// production defaults; the clock and id generator are injectable for tests.
type Config struct {
	Glare     *glare.Analyzer
	Monitor   *quality.LiveMonitor
	Assessor  *quality.Assessor
	Resolver  *duplicate.Resolver
	Queue     storage.UploadQueue
	Extractor ocr.Extractor
	Events    observer.Subject

	Now   func() time.Time
	NewID func() string
}

// pendingCapture is a duplicate-flagged capture held until the user decides
// to keep or discard it.
type pendingCapture struct {
	result     models.CaptureResult
	imageBytes []byte
	metadata   *models.ReceiptMetadata
}

// Controller drives a single capture session. Live-path methods are called
// from the frame-delivery goroutine; Capture and ResolveDuplicate may be
// called from request handlers concurrently.
type Controller struct {
	glare     *glare.Analyzer
	monitor   *quality.LiveMonitor
	assessor  *quality.Assessor
	resolver  *duplicate.Resolver
	queue     storage.UploadQueue
	extractor ocr.Extractor
	events    observer.Subject
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	state   models.CaptureState
	pending map[string]pendingCapture
}

// NewController creates a capture controller.
func NewController(cfg Config) *Controller {
	if cfg.Glare == nil {
		cfg.Glare = glare.NewAnalyzer(glare.Config{})
	}
	if cfg.Monitor == nil {
		cfg.Monitor = quality.NewLiveMonitor(quality.MonitorConfig{})
	}
	if cfg.Assessor == nil {
		cfg.Assessor = quality.NewAssessor()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = duplicate.NewResolver(nil, nil, 0)
	}
	if cfg.Queue == nil {
		cfg.Queue = storage.NewMemoryQueue()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = ocr.NewNoopExtractor()
	}
	if cfg.Events == nil {
		cfg.Events = observer.NewEventPublisher()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Controller{
		glare:     cfg.Glare,
		monitor:   cfg.Monitor,
		assessor:  cfg.Assessor,
		resolver:  cfg.Resolver,
		queue:     cfg.Queue,
		extractor: cfg.Extractor,
		events:    cfg.Events,
		now:       cfg.Now,
		newID:     cfg.NewID,
		state:     models.StateIdle,
		pending:   make(map[string]pendingCapture),
	}
}

// State returns the controller's current session state.
func (c *Controller) State() models.CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartSession moves the controller into live guidance.
func (c *Controller) StartSession() {
	c.setState(models.StateLiveGuidance)
}

// EndSession returns the controller to idle. Pending duplicate decisions
// survive the session boundary so the user can resolve them later.
func (c *Controller) EndSession() {
	c.setState(models.StateIdle)
}

// OfferFrame evaluates one live preview frame and returns the combined
// guidance signal. Offering a frame to an idle controller implicitly starts
// live guidance.
func (c *Controller) OfferFrame(frame sampler.Frame, boundary *models.Rect) models.LiveGuidance {
	c.mu.Lock()
	if c.state == models.StateIdle {
		c.state = models.StateLiveGuidance
	}
	c.mu.Unlock()

	glareResult := c.glare.AnalyzeFrame(frame, boundary)
	preview := c.monitor.CheckFrame(frame)

	return models.LiveGuidance{
		Glare:             glareResult,
		PreviewBrightness: preview.Brightness,
		PreviewAcceptable: preview.Acceptable,
		AllowAutoCapture: preview.Acceptable &&
			glareResult.Severity < validation.GlareBlockingThreshold &&
			!glareResult.IsBlockingText,
	}
}

// Capture runs post-capture analysis on an encoded still. Undecodable input
// is the only rejection path; low-quality images are accepted with warnings
// so the user is never forced to retake a legible receipt. A duplicate match
// parks the capture as pending until ResolveDuplicate is called.
func (c *Controller) Capture(ctx context.Context, imageBytes []byte, meta *models.ReceiptMetadata) (models.CaptureResult, error) {
	start := c.now()
	id := c.newID()

	c.setState(models.StateCapturing)
	c.events.NotifyObservers(ctx, observer.CaptureEvent{
		EventType: observer.CaptureStarted,
		Timestamp: start,
		CaptureID: id,
	})
	c.setState(models.StatePostCaptureAnalysis)

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		result := models.CaptureResult{
			ID:         id,
			State:      models.StateRejected,
			CapturedAt: start,
			Hash:       phash.ComputeBytes(imageBytes),
			Warnings:   []string{"Image could not be decoded; please retake the photo"},
		}
		c.setState(models.StateRejected)
		c.events.NotifyObservers(ctx, observer.CaptureEvent{
			EventType:      observer.CaptureRejected,
			Timestamp:      c.now(),
			CaptureID:      id,
			State:          result.State,
			ProcessingTime: c.now().Sub(start),
			ErrorMessage:   err.Error(),
		})
		return result, nil
	}

	qualityResult := c.assessor.Assess(img)
	hash := phash.Compute(img)

	if meta == nil {
		extracted, extractErr := c.extractor.Extract(ctx, imageBytes)
		if extractErr != nil {
			// Metadata only sharpens duplicate matching; capture proceeds
			// on the fingerprint alone.
			logger.WithError(extractErr).WithField("capture_id", id).Warn("Metadata extraction failed")
		} else {
			meta = extracted
		}
	}

	result := models.CaptureResult{
		ID:         id,
		CapturedAt: start,
		Quality:    qualityResult,
		Hash:       hash,
		Warnings:   qualityWarnings(qualityResult),
	}

	dup := c.resolver.Resolve(ctx, hash, meta)
	if dup.IsDuplicate {
		result.State = models.StateDuplicateFlagged
		result.Duplicate = &dup

		c.mu.Lock()
		c.state = models.StateDuplicateFlagged
		c.pending[id] = pendingCapture{result: result, imageBytes: imageBytes, metadata: meta}
		c.mu.Unlock()

		c.events.NotifyObservers(ctx, observer.CaptureEvent{
			EventType:      observer.DuplicateFlagged,
			Timestamp:      c.now(),
			CaptureID:      id,
			State:          result.State,
			ProcessingTime: c.now().Sub(start),
			Metadata: map[string]interface{}{
				"existing_receipt_id": dup.ExistingReceiptID,
				"match_type":          dup.MatchType,
			},
		})
		return result, nil
	}

	if err := c.enqueue(ctx, id, imageBytes, qualityResult, start, meta); err != nil {
		return models.CaptureResult{}, err
	}
	c.resolver.RecordAccepted(hash, id)

	result.State = models.StateAccepted
	c.setState(models.StateAccepted)
	c.events.NotifyObservers(ctx, observer.CaptureEvent{
		EventType:      observer.CaptureAccepted,
		Timestamp:      c.now(),
		CaptureID:      id,
		State:          result.State,
		ProcessingTime: c.now().Sub(start),
		Metadata: map[string]interface{}{
			"quality_score": qualityResult.OverallScore,
			"acceptable":    qualityResult.IsAcceptable,
		},
	})
	return result, nil
}

// ResolveDuplicate settles a duplicate-flagged capture. keep accepts the
// capture as a distinct receipt and queues its upload; otherwise the capture
// is discarded and the existing receipt stands.
func (c *Controller) ResolveDuplicate(ctx context.Context, captureID string, keep bool) (models.CaptureResult, error) {
	c.mu.Lock()
	p, ok := c.pending[captureID]
	if ok {
		delete(c.pending, captureID)
	}
	c.mu.Unlock()

	if !ok {
		return models.CaptureResult{}, apperrors.NewNotFoundError("no pending capture with id "+captureID, nil)
	}

	result := p.result
	if keep {
		if err := c.enqueue(ctx, captureID, p.imageBytes, p.result.Quality, p.result.CapturedAt, p.metadata); err != nil {
			// Put the capture back so the decision can be retried.
			c.mu.Lock()
			c.pending[captureID] = p
			c.mu.Unlock()
			return models.CaptureResult{}, err
		}
		c.resolver.RecordAccepted(p.result.Hash, captureID)
		result.State = models.StateAccepted
	}

	c.setState(models.StateLiveGuidance)
	c.events.NotifyObservers(ctx, observer.CaptureEvent{
		EventType: observer.DuplicateResolved,
		Timestamp: c.now(),
		CaptureID: captureID,
		State:     result.State,
		Metadata:  map[string]interface{}{"kept": keep},
	})
	return result, nil
}

// PendingCount reports how many duplicate-flagged captures await a decision.
func (c *Controller) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Controller) enqueue(ctx context.Context, id string, imageBytes []byte, q models.QualityResult, capturedAt time.Time, meta *models.ReceiptMetadata) error {
	upload := storage.Upload{
		ReceiptID:  id,
		ImageBytes: imageBytes,
		Quality:    q,
		CapturedAt: capturedAt,
		Metadata:   meta,
	}
	if err := c.queue.Enqueue(ctx, upload); err != nil {
		c.events.NotifyObservers(ctx, observer.CaptureEvent{
			EventType:    observer.UploadFailed,
			Timestamp:    c.now(),
			CaptureID:    id,
			ErrorMessage: err.Error(),
		})
		return apperrors.NewInternalError("failed to queue capture for upload", err)
	}
	return nil
}

func (c *Controller) setState(state models.CaptureState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// qualityWarnings lifts actionable feedback into capture warnings so an
// accepted-but-imperfect capture still tells the user what to improve.
func qualityWarnings(q models.QualityResult) []string {
	var warnings []string
	for _, item := range q.Feedback {
		if item.Severity == models.SeverityInfo {
			continue
		}
		warnings = append(warnings, item.Message)
	}
	return warnings
}
