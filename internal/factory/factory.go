package factory

import (
	"fmt"

	"go-receipt-capture/internal/config"
	"go-receipt-capture/internal/duplicate"
	"go-receipt-capture/internal/ocr"
	"go-receipt-capture/internal/storage"
)

// QueueType represents different upload queue backends
type QueueType string

const (
	// MemoryQueue keeps uploads in process; used when Azure is not configured
	MemoryQueue QueueType = "memory"
	// AzureQueue delivers uploads to Azure blob storage
	AzureQueue QueueType = "azure"
)

// ExtractorType represents different metadata extraction backends
type ExtractorType string

const (
	// NoopExtractor skips metadata extraction
	NoopExtractor ExtractorType = "noop"
	// TesseractExtractor runs OCR over captured stills
	TesseractExtractor ExtractorType = "tesseract"
)

// CheckerType represents different duplicate check backends
type CheckerType string

const (
	// DisabledChecker answers "not a duplicate" without a network call
	DisabledChecker CheckerType = "disabled"
	// HTTPChecker asks the remote duplicate-check service
	HTTPChecker CheckerType = "http"
)

// ComponentFactory creates the swappable backends of the capture pipeline
type ComponentFactory interface {
	CreateQueue(queueType QueueType) (storage.UploadQueue, error)
	CreateExtractor(extractorType ExtractorType) (ocr.Extractor, error)
	CreateChecker(checkerType CheckerType) (duplicate.Checker, error)
}

// componentFactory implements ComponentFactory from configuration
type componentFactory struct {
	cfg *config.Config
}

// NewComponentFactory creates a factory bound to the given configuration
func NewComponentFactory(cfg *config.Config) ComponentFactory {
	return &componentFactory{cfg: cfg}
}

// CreateQueue creates an upload queue of the specified type. Azure queues
// are wrapped in the async worker pool so capture latency stays independent
// of blob storage latency.
func (f *componentFactory) CreateQueue(queueType QueueType) (storage.UploadQueue, error) {
	switch queueType {
	case MemoryQueue:
		return storage.NewMemoryQueue(), nil
	case AzureQueue:
		backend, err := storage.NewAzureQueue(f.cfg.AzureAccountName, f.cfg.AzureAccountKey, f.cfg.AzureUploadBucket)
		if err != nil {
			return nil, err
		}
		return storage.NewAsyncQueue(backend, 0), nil
	default:
		return nil, fmt.Errorf("unsupported queue type: %s", queueType)
	}
}

// CreateExtractor creates a metadata extractor of the specified type
func (f *componentFactory) CreateExtractor(extractorType ExtractorType) (ocr.Extractor, error) {
	switch extractorType {
	case NoopExtractor:
		return ocr.NewNoopExtractor(), nil
	case TesseractExtractor:
		return ocr.NewTesseractExtractor(), nil
	default:
		return nil, fmt.Errorf("unsupported extractor type: %s", extractorType)
	}
}

// CreateChecker creates a duplicate checker of the specified type
func (f *componentFactory) CreateChecker(checkerType CheckerType) (duplicate.Checker, error) {
	switch checkerType {
	case DisabledChecker:
		return duplicate.NewDisabledChecker(), nil
	case HTTPChecker:
		return duplicate.NewHTTPChecker(f.cfg.DuplicateCheckURL, f.cfg.DuplicateCheckTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported checker type: %s", checkerType)
	}
}
