// Package storage hands accepted captures to the upload queue. The queue is
// solely responsible for persistence, retry, and offline behavior; the
// capture pipeline only ever enqueues and never inspects queue internals.
package storage

import (
	"context"
	"sync"
	"time"

	"go-receipt-capture/pkg/models"
)

// Upload is one accepted capture handed to the queue.
type Upload struct {
	ReceiptID  string
	ImageBytes []byte
	Quality    models.QualityResult
	CapturedAt time.Time
	Metadata   *models.ReceiptMetadata
}

// UploadQueue accepts captures for persistence. Implementations must be safe
// for concurrent enqueues.
type UploadQueue interface {
	Enqueue(ctx context.Context, upload Upload) error
}

// MemoryQueue is the in-process queue used by tests and local runs.
type MemoryQueue struct {
	mu      sync.Mutex
	uploads []Upload
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// Enqueue appends the upload.
func (q *MemoryQueue) Enqueue(_ context.Context, upload Upload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.uploads = append(q.uploads, upload)
	return nil
}

// Uploads returns a snapshot of everything enqueued so far.
func (q *MemoryQueue) Uploads() []Upload {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Upload, len(q.uploads))
	copy(out, q.uploads)
	return out
}

// Len returns the number of enqueued uploads.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.uploads)
}
