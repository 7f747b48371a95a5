// Package ocr extracts receipt metadata (merchant, amount, date) from a
// captured still. The duplicate-check service correlates on these fields;
// extraction failures degrade to nil metadata rather than blocking capture.
package ocr

import (
	"context"

	"github.com/otiai10/gosseract/v2"

	"go-receipt-capture/internal/logger"
	"go-receipt-capture/pkg/models"
)

// Extractor pulls receipt metadata out of encoded image bytes. A nil
// metadata result with nil error means nothing usable was recognized.
type Extractor interface {
	Extract(ctx context.Context, imageBytes []byte) (*models.ReceiptMetadata, error)
}

// TesseractExtractor runs tesseract over the still and parses the raw text.
type TesseractExtractor struct{}

// NewTesseractExtractor creates a tesseract-backed extractor.
func NewTesseractExtractor() *TesseractExtractor {
	return &TesseractExtractor{}
}

// Extract OCRs the image and parses merchant, amount, and date from the
// text. A tesseract client is created per call; the client is not safe for
// concurrent reuse.
func (e *TesseractExtractor) Extract(ctx context.Context, imageBytes []byte) (*models.ReceiptMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(imageBytes) == 0 {
		return nil, nil
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return nil, err
	}
	text, err := client.Text()
	if err != nil {
		return nil, err
	}

	meta := ParseReceiptText(text)
	if meta != nil {
		logger.WithField("merchant", meta.Merchant).Debug("Extracted receipt metadata")
	}
	return meta, nil
}

// NoopExtractor is used when tesseract is not available; duplicate checks
// then run on the fingerprint alone.
type NoopExtractor struct{}

// NewNoopExtractor creates an extractor that never returns metadata.
func NewNoopExtractor() *NoopExtractor {
	return &NoopExtractor{}
}

// Extract always reports no metadata.
func (*NoopExtractor) Extract(context.Context, []byte) (*models.ReceiptMetadata, error) {
	return nil, nil
}
