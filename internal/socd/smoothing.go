package socd

import "time"

// DefaultFrame is one frame at 60Hz.
const DefaultFrame = 16667 * time.Microsecond

// SmoothingConfig controls the delayed report of a newly favoured key.
type SmoothingConfig struct {
	// Enabled turns smoothing on. When off, Step returns its input.
	Enabled bool

	// Frame is how long a newly favoured key is held back.
	Frame time.Duration

	// SkipWhenOrthogonalHeld reports the newly favoured key immediately
	// when any key on the other axis is held. When false the delay applies
	// regardless of the other axis.
	SkipWhenOrthogonalHeld bool
}

// DefaultSmoothingConfig returns smoothing disabled with a one frame delay
// and orthogonal skipping on.
func DefaultSmoothingConfig() SmoothingConfig {
	return SmoothingConfig{
		Enabled:                false,
		Frame:                  DefaultFrame,
		SkipWhenOrthogonalHeld: true,
	}
}

// Smoother withholds the press of a key that newly wins an axis conflict
// for one frame. It only ever clears keys, so the settled output equals the
// resolved state once every deferral is due.
type Smoother struct {
	cfg   SmoothingConfig
	prev  Virtual
	dueAt [NumKeys]time.Time
}

// NewSmoother returns a smoother with cfg.
func NewSmoother(cfg SmoothingConfig) *Smoother {
	if cfg.Frame <= 0 {
		cfg.Frame = DefaultFrame
	}
	return &Smoother{cfg: cfg}
}

// dueNow marks a deferral that is already due, whatever the clock says.
var dueNow = time.Unix(0, 0)

// SetConfig replaces the configuration. When smoothing is turned off,
// pending deferrals become due immediately rather than being dropped, so the
// withheld key is still reported by the next Step.
func (s *Smoother) SetConfig(cfg SmoothingConfig) {
	if cfg.Frame <= 0 {
		cfg.Frame = DefaultFrame
	}
	s.cfg = cfg
	if !cfg.Enabled {
		for k := range s.dueAt {
			if !s.dueAt[k].IsZero() {
				s.dueAt[k] = dueNow
			}
		}
	}
}

// Step returns the state to report now for the resolved state of st.
// deferred is true when at least one key is being held back.
func (s *Smoother) Step(st State, resolved Virtual, now time.Time) (out Virtual, deferred bool) {
	out = resolved
	if !s.cfg.Enabled {
		s.dueAt = [NumKeys]time.Time{}
		s.prev = out
		return out, false
	}

	for _, k := range Keys {
		if !resolved[k] {
			s.dueAt[k] = time.Time{}
		}
	}

	for _, a := range Axes {
		if !st.Conflict(a) {
			continue
		}
		orthogonalIdle := st.AxisIdle(a.Orthogonal())
		x, y := a.Members()
		for _, w := range [2]LogicalKey{x, y} {
			if !resolved[w] || s.prev[w] || !s.dueAt[w].IsZero() {
				continue
			}
			if orthogonalIdle || !s.cfg.SkipWhenOrthogonalHeld {
				s.dueAt[w] = now.Add(s.cfg.Frame)
			}
		}
	}

	for _, k := range Keys {
		if s.dueAt[k].IsZero() {
			continue
		}
		if now.Before(s.dueAt[k]) {
			out[k] = false
			deferred = true
			continue
		}
		s.dueAt[k] = time.Time{}
	}

	s.prev = out
	return out, deferred
}

// NextDue returns the earliest pending deadline.
func (s *Smoother) NextDue() (time.Time, bool) {
	var due time.Time
	for _, t := range s.dueAt {
		if t.IsZero() {
			continue
		}
		if due.IsZero() || t.Before(due) {
			due = t
		}
	}
	return due, !due.IsZero()
}
