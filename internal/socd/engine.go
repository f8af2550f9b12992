package socd

import (
	"sync"
	"time"
)

// Result describes one resolution cycle.
type Result struct {
	// Virtual is the state to report.
	Virtual Virtual

	// Applied is the number of batch transitions that matched the binding.
	Applied int

	// Conflicts is the number of axes with both members held.
	Conflicts int

	// Deferred is true while smoothing withholds a key.
	Deferred bool
}

// Changed reports whether the cycle needs to be emitted.
func (r Result) Changed() bool {
	return r.Applied > 0
}

// Engine owns a Tracker, a Policy and a Smoother. Every update followed by
// its resolution runs inside one critical section, so Snapshot never sees a
// partially applied batch.
type Engine struct {
	mu       sync.Mutex
	tracker  *Tracker
	policy   Policy
	smoother *Smoother
	emitted  Virtual
	// stale is set when a setting changed since the last resolution.
	stale bool
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the conflict policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithSmoothing sets the smoothing configuration.
func WithSmoothing(cfg SmoothingConfig) Option {
	return func(e *Engine) { e.smoother.SetConfig(cfg) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an engine for binding b.
func NewEngine(b Binding, opts ...Option) *Engine {
	e := &Engine{
		tracker:  NewTracker(b),
		policy:   PolicyLast,
		smoother: NewSmoother(DefaultSmoothingConfig()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process applies b in order and resolves the resulting state. A batch
// with no bound key leaves the state untouched and is not resolved, so a
// pending smoothing deadline stays with Flush.
func (e *Engine) Process(b Batch) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	applied := e.tracker.ApplyBatch(b)
	if applied == 0 {
		return Result{Virtual: e.emitted}
	}
	res := e.resolveLocked()
	res.Applied = applied
	return res
}

// Flush re-resolves the current state once a smoothing deadline has
// passed or a setting changed. ok is false when nothing was due.
func (e *Engine) Flush() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.stale {
		due, pending := e.smoother.NextDue()
		if !pending || e.now().Before(due) {
			return Result{}, false
		}
	}
	return e.resolveLocked(), true
}

func (e *Engine) resolveLocked() Result {
	st := e.tracker.State()
	resolved := e.policy.Resolve(st)
	out, deferred := e.smoother.Step(st, resolved, e.now())
	e.emitted = out
	e.stale = false

	conflicts := 0
	for _, a := range Axes {
		if st.Conflict(a) {
			conflicts++
		}
	}
	return Result{Virtual: out, Conflicts: conflicts, Deferred: deferred}
}

// NextDue returns when Flush next has work: the earliest smoothing
// deadline, or now after a setting changed.
func (e *Engine) NextDue() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return e.now(), true
	}
	return e.smoother.NextDue()
}

// Snapshot returns the tracked state and the last resolved output.
func (e *Engine) Snapshot() (State, Virtual) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.State(), e.emitted
}

// Binding returns the engine's key binding.
func (e *Engine) Binding() Binding {
	return e.tracker.Binding()
}

// Policy returns the active policy.
func (e *Engine) Policy() Policy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.policy
}

// SetPolicy swaps the conflict policy. The next Flush reports the state
// under the new policy.
func (e *Engine) SetPolicy(p Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p != e.policy {
		e.policy = p
		e.stale = true
	}
}

// SetSmoothing swaps the smoothing configuration. Keys held back when
// smoothing is turned off become due at once and go out on the next Flush.
func (e *Engine) SetSmoothing(cfg SmoothingConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.smoother.SetConfig(cfg)
}
