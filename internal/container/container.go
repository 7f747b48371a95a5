package container

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"go-receipt-capture/internal/capture"
	"go-receipt-capture/internal/config"
	"go-receipt-capture/internal/duplicate"
	"go-receipt-capture/internal/factory"
	"go-receipt-capture/internal/glare"
	"go-receipt-capture/internal/observer"
	"go-receipt-capture/internal/quality"
	"go-receipt-capture/internal/service"
	"go-receipt-capture/internal/storage"
	"go-receipt-capture/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config         *config.Config
	queue          storage.UploadQueue
	controller     *capture.Controller
	captureService service.CaptureService
	handler        http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	// Build dependency graph
	queueType := factory.MemoryQueue
	if cfg.AzureConfigured() {
		queueType = factory.AzureQueue
	}
	queue, err := components.CreateQueue(queueType)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload queue: %w", err)
	}

	extractorType := factory.NoopExtractor
	if cfg.OCREnabled {
		extractorType = factory.TesseractExtractor
	}
	extractor, err := components.CreateExtractor(extractorType)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata extractor: %w", err)
	}

	checkerType := factory.DisabledChecker
	if cfg.DuplicateCheckURL != "" {
		checkerType = factory.HTTPChecker
	}
	checker, err := components.CreateChecker(checkerType)
	if err != nil {
		return nil, fmt.Errorf("failed to build duplicate checker: %w", err)
	}

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logrus.StandardLogger()))
	events.Subscribe(observer.NewMetricsObserver())

	controller := capture.NewController(capture.Config{
		Glare:     glare.NewAnalyzer(glare.Config{Interval: cfg.FrameInterval}),
		Monitor:   quality.NewLiveMonitor(quality.MonitorConfig{Interval: cfg.FrameInterval}),
		Assessor:  quality.NewAssessor(),
		Resolver:  duplicate.NewResolver(duplicate.NewHashCache(cfg.HashCacheCapacity), checker, cfg.DuplicateCheckTimeout),
		Queue:     queue,
		Extractor: extractor,
		Events:    events,
	})

	captureService := service.NewCaptureService(controller)
	handler := transport.NewHandler(captureService, cfg)

	return &Container{
		config:         cfg,
		queue:          queue,
		controller:     controller,
		captureService: captureService,
		handler:        handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close flushes in-flight uploads when the queue supports draining.
func (c *Container) Close() {
	if q, ok := c.queue.(*storage.AsyncQueue); ok {
		q.Close()
	}
}
