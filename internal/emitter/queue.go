package emitter

import (
	"context"
	"errors"
	"sync"

	"socd/internal/socd"
)

// DefaultQueueSize is the reader queue capacity in batches.
const DefaultQueueSize = 64

// QueuedSource reads from an underlying Source on its own goroutine and
// hands batches to the loop over a bounded channel. The loop goroutine stays
// the only owner of the engine state, so reads never race with emission.
type QueuedSource struct {
	src     Source
	batches chan socd.Batch
	errc    chan error
	metrics *Metrics

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewQueuedSource wraps src. Start must be called before NextBatch.
func NewQueuedSource(src Source, size int, m *Metrics) *QueuedSource {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &QueuedSource{
		src:     src,
		batches: make(chan socd.Batch, size),
		errc:    make(chan error, 1),
		metrics: m,
		done:    make(chan struct{}),
	}
}

// Start launches the reader goroutine.
func (q *QueuedSource) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	go q.readLoop(ctx)
}

func (q *QueuedSource) readLoop(ctx context.Context) {
	defer close(q.done)

	for {
		batch, err := q.src.NextBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
				if q.metrics != nil && errors.Is(err, ErrTransient) {
					q.metrics.TransientErrors.Inc()
				}
				continue
			}
			q.errc <- err
			return
		}
		if len(batch) == 0 {
			continue
		}

		select {
		case q.batches <- batch:
			if q.metrics != nil {
				q.metrics.QueueDepth.Set(int64(len(q.batches)))
			}
		case <-ctx.Done():
			return
		}
	}
}

// NextBatch returns the next queued batch.
func (q *QueuedSource) NextBatch(ctx context.Context) (socd.Batch, error) {
	select {
	case b := <-q.batches:
		if q.metrics != nil {
			q.metrics.QueueDepth.Set(int64(len(q.batches)))
		}
		return b, nil
	default:
	}

	select {
	case b := <-q.batches:
		return b, nil
	case err := <-q.errc:
		// batches queued ahead of the failure still go out first
		select {
		case b := <-q.batches:
			q.errc <- err
			return b, nil
		default:
		}
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the reader and closes the underlying source. Closing the
// source unblocks a reader stuck in a device read.
func (q *QueuedSource) Close() error {
	q.closeOnce.Do(func() {
		if q.cancel != nil {
			q.cancel()
		}
		q.closeErr = q.src.Close()
		if q.cancel != nil {
			<-q.done
		}
	})
	return q.closeErr
}
