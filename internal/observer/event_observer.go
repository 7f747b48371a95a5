package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-receipt-capture/pkg/models"
)

// CaptureEvent represents a capture lifecycle event
type CaptureEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	CaptureID      string                 `json:"capture_id"`
	State          models.CaptureState    `json:"state,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of capture event
type EventType string

const (
	// CaptureStarted when post-capture analysis begins
	CaptureStarted EventType = "capture_started"
	// CaptureAccepted when a capture is accepted and queued for upload
	CaptureAccepted EventType = "capture_accepted"
	// CaptureRejected when a capture cannot be decoded
	CaptureRejected EventType = "capture_rejected"
	// DuplicateFlagged when a capture matches an existing receipt
	DuplicateFlagged EventType = "duplicate_flagged"
	// DuplicateResolved when the user keeps or discards a flagged capture
	DuplicateResolved EventType = "duplicate_resolved"
	// UploadFailed when enqueueing an accepted capture fails
	UploadFailed EventType = "upload_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event CaptureEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event CaptureEvent)
}

// LoggingObserver logs capture events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles capture events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event CaptureEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"capture_id":      event.CaptureID,
		"processing_time": event.ProcessingTime,
	}
	if event.State != "" {
		fields["state"] = event.State
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case CaptureStarted:
		o.logger.WithFields(fields).Debug("Capture analysis started")
	case CaptureAccepted:
		o.logger.WithFields(fields).Info("Capture accepted")
	case CaptureRejected:
		o.logger.WithFields(fields).Warn("Capture rejected")
	case DuplicateFlagged:
		o.logger.WithFields(fields).Info("Capture flagged as duplicate")
	case DuplicateResolved:
		o.logger.WithFields(fields).Info("Duplicate resolved")
	case UploadFailed:
		o.logger.WithFields(fields).Error("Upload enqueue failed")
	default:
		o.logger.WithFields(fields).Info("Capture event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from capture events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalCaptures       int64
	acceptedCaptures    int64
	rejectedCaptures    int64
	duplicatesFlagged   int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles capture events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event CaptureEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case CaptureStarted:
		o.totalCaptures++
	case CaptureAccepted:
		o.acceptedCaptures++
		o.totalProcessingTime += event.ProcessingTime
	case CaptureRejected:
		o.rejectedCaptures++
	case DuplicateFlagged:
		o.duplicatesFlagged++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.acceptedCaptures > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.acceptedCaptures)
	}

	return map[string]interface{}{
		"total_captures":        o.totalCaptures,
		"accepted_captures":     o.acceptedCaptures,
		"rejected_captures":     o.rejectedCaptures,
		"duplicates_flagged":    o.duplicatesFlagged,
		"total_processing_time": o.totalProcessingTime,
		"avg_processing_time":   avgProcessingTime,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event CaptureEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Notify observers concurrently
	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
