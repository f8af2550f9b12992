//go:build linux

package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"socd/internal/emitter"
	"socd/internal/socd"
)

// DefaultReadTimeout bounds one epoll wait so shutdown is noticed.
const DefaultReadTimeout = 100 * time.Millisecond

// NotifySource waits on epoll for the device to become readable and only
// then reads, so an idle keyboard costs no CPU.
type NotifySource struct {
	mu      sync.Mutex
	fd      int
	epfd    int
	timeout time.Duration
	buf     []byte
	events  []unix.EpollEvent
}

// OpenNotify opens path and registers it with a new epoll instance.
func OpenNotify(path string, timeout time.Duration) (*NotifySource, error) {
	fd, err := openInput(path, true)
	if err != nil {
		return nil, err
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		unix.Close(epfd)
		unix.Close(fd)
		return nil, fmt.Errorf("epoll add %s: %w", path, err)
	}

	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &NotifySource{
		fd:      fd,
		epfd:    epfd,
		timeout: timeout,
		buf:     make([]byte, EventSize*ReadBufferEvents),
		events:  make([]unix.EpollEvent, 1),
	}, nil
}

// waitTimeout returns the epoll timeout in milliseconds, shortened to the
// ctx deadline.
func (n *NotifySource) waitTimeout(ctx context.Context) int {
	d := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < d {
			d = until
		}
	}
	if d <= 0 {
		return 0
	}
	ms := int((d + time.Millisecond - 1) / time.Millisecond)
	return ms
}

// NextBatch blocks until the device is readable or the timeout passes.
// A timeout yields an empty batch, or ctx's error once ctx is done.
func (n *NotifySource) NextBatch(ctx context.Context) (socd.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fd < 0 {
		return nil, emitter.ErrSourceClosed
	}

	count, err := unix.EpollWait(n.epfd, n.events, n.waitTimeout(ctx))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, fmt.Errorf("%w: %v", emitter.ErrTransient, err)
		}
		return nil, fmt.Errorf("epoll wait: %w", err)
	}
	if count == 0 {
		return nil, ctx.Err()
	}
	if n.events[0].Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 && n.events[0].Events&unix.EPOLLIN == 0 {
		return nil, emitter.ErrSourceClosed
	}
	return readBatch(n.fd, n.buf)
}

// Close closes the device and the epoll instance.
func (n *NotifySource) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return errors.Join(closeFD(&n.epfd), closeFD(&n.fd))
}
