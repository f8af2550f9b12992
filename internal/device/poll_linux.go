//go:build linux

package device

import (
	"context"
	"sync"
	"time"

	"socd/internal/socd"
)

// DefaultPollInterval is the sleep between non-blocking reads.
const DefaultPollInterval = time.Millisecond

// PollSource sleeps briefly and then attempts a non-blocking read.
type PollSource struct {
	mu       sync.Mutex
	fd       int
	interval time.Duration
	buf      []byte
}

// OpenPoll opens path non-blocking.
func OpenPoll(path string, interval time.Duration) (*PollSource, error) {
	fd, err := openInput(path, true)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollSource{
		fd:       fd,
		interval: interval,
		buf:      make([]byte, EventSize*ReadBufferEvents),
	}, nil
}

// NextBatch sleeps for the poll interval, cut short by ctx, then reads
// whatever is pending. An idle device yields an empty batch.
func (p *PollSource) NextBatch(ctx context.Context) (socd.Batch, error) {
	timer := time.NewTimer(p.interval)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return readBatch(p.fd, p.buf)
}

// Close closes the device.
func (p *PollSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return closeFD(&p.fd)
}
