package emitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"socd/internal/metrics"
	"socd/internal/socd"
)

// State is the loop's position in its cycle.
type State int32

const (
	StateIdle State = iota
	StateWaitForEvents
	StateApply
	StateEmit
	StateShutDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitForEvents:
		return "wait"
	case StateApply:
		return "apply"
	case StateEmit:
		return "emit"
	case StateShutDown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Loop drives an Engine from a Source and writes its output to a Sink.
type Loop struct {
	engine  *socd.Engine
	source  Source
	sink    Sink
	log     *slog.Logger
	metrics *Metrics
	state   atomic.Int32
}

// NewLoop creates a loop. A nil logger discards output; nil metrics are
// registered in a private registry.
func NewLoop(engine *socd.Engine, source Source, sink Sink, log *slog.Logger, m *Metrics) *Loop {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m == nil {
		m = NewMetrics(metrics.NewRegistry("socd", ""))
	}
	return &Loop{
		engine:  engine,
		source:  source,
		sink:    sink,
		log:     log,
		metrics: m,
	}
}

// State returns the current loop state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

// Run processes batches until ctx is cancelled or a fatal error occurs.
// Cancellation is not an error. A cycle that has started applying always
// finishes emitting before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.setState(StateShutDown)

	for {
		l.setState(StateIdle)
		if ctx.Err() != nil {
			l.log.Debug("loop stopping")
			return nil
		}

		if res, ok := l.engine.Flush(); ok {
			l.setState(StateEmit)
			if err := l.emit(res); err != nil {
				return err
			}
			l.setState(StateIdle)
		}

		batch, err := l.wait(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				continue
			case errors.Is(err, ErrTransient):
				l.metrics.TransientErrors.Inc()
				l.log.Debug("transient read error", "error", err)
				continue
			case errors.Is(err, context.DeadlineExceeded):
				continue
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}
		if len(batch) == 0 {
			continue
		}

		l.setState(StateApply)
		l.metrics.EventsRead.Add(uint64(len(batch)))
		res := l.engine.Process(batch)
		if !res.Changed() {
			continue
		}
		l.metrics.BatchesApplied.Inc()

		l.setState(StateEmit)
		if err := l.emit(res); err != nil {
			return err
		}
	}
}

// wait bounds the read by the next smoothing deadline, if any.
func (l *Loop) wait(ctx context.Context) (socd.Batch, error) {
	l.setState(StateWaitForEvents)
	if due, ok := l.engine.NextDue(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, due)
		defer cancel()
	}
	return l.source.NextBatch(ctx)
}

// emit writes every key followed by one sync marker.
func (l *Loop) emit(res socd.Result) error {
	start := time.Now()
	binding := l.engine.Binding()

	for _, k := range socd.Keys {
		if err := l.sink.Report(binding.Code(k), res.Virtual[k]); err != nil {
			return fmt.Errorf("%w: report %s: %w", ErrSink, k, err)
		}
	}
	if err := l.sink.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %w", ErrSink, err)
	}

	l.metrics.Emits.Inc()
	l.metrics.EmitDuration.ObserveDuration(time.Since(start))
	if res.Conflicts > 0 {
		l.metrics.ConflictsResolved.Inc()
	}
	if res.Deferred {
		l.metrics.DeferredReports.Inc()
	}
	l.log.Debug("emitted", "virtual", res.Virtual.String(), "conflicts", res.Conflicts, "deferred", res.Deferred)
	return nil
}
