package storage

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go-receipt-capture/internal/logger"
)

const uploadAttemptTimeout = 30 * time.Second

// AsyncQueue decouples capture acceptance from upload latency: Enqueue hands
// the upload to a worker goroutine and returns immediately. Upload failures
// are logged, not surfaced; the capture flow never blocks on storage.
type AsyncQueue struct {
	backend UploadQueue
	jobs    chan Upload
	wg      sync.WaitGroup
	once    sync.Once
}

// NewAsyncQueue wraps a backend queue with a pool of upload workers.
// workers <= 0 uses one worker per CPU.
func NewAsyncQueue(backend UploadQueue, workers int) *AsyncQueue {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	q := &AsyncQueue{
		backend: backend,
		jobs:    make(chan Upload, workers*2),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue queues the upload for background delivery. Only a cancelled
// caller context is reported as an error.
func (q *AsyncQueue) Enqueue(ctx context.Context, upload Upload) error {
	select {
	case q.jobs <- upload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker delivers uploads from the job queue to the backend.
func (q *AsyncQueue) worker() {
	defer q.wg.Done()
	for upload := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), uploadAttemptTimeout)
		if err := q.backend.Enqueue(ctx, upload); err != nil {
			logger.WithError(err).WithField("receipt_id", upload.ReceiptID).Error("Background upload failed")
		}
		cancel()
	}
}

// Close stops accepting uploads and waits for in-flight deliveries to finish.
func (q *AsyncQueue) Close() {
	q.once.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}
