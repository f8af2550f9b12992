package socd

// State is the physically observed key state.
type State struct {
	// Real reports whether each key is currently held.
	Real [NumKeys]bool

	// LastPressed holds, per axis, the member that most recently went down.
	// It is never cleared on release.
	LastPressed [NumAxes]LogicalKey
}

// NewState returns a state with nothing held and no axis winner.
func NewState() State {
	return State{LastPressed: [NumAxes]LogicalKey{NoKey, NoKey}}
}

// Conflict reports whether both members of a are held.
func (s State) Conflict(a Axis) bool {
	x, y := a.Members()
	return s.Real[x] && s.Real[y]
}

// AxisIdle reports whether no member of a is held.
func (s State) AxisIdle(a Axis) bool {
	x, y := a.Members()
	return !s.Real[x] && !s.Real[y]
}

// Tracker applies transitions to a State.
type Tracker struct {
	binding Binding
	state   State
}

// NewTracker returns a tracker for the given binding.
func NewTracker(b Binding) *Tracker {
	return &Tracker{binding: b, state: NewState()}
}

// Apply records one transition. Codes outside the binding are ignored and
// Apply returns false for them.
func (t *Tracker) Apply(tr Transition) bool {
	k, ok := t.binding.Lookup(tr.Code)
	if !ok {
		return false
	}
	if tr.Down {
		t.state.Real[k] = true
		t.state.LastPressed[AxisOf(k)] = k
		return true
	}
	t.state.Real[k] = false
	return true
}

// ApplyBatch applies transitions in order and returns how many matched
// the binding.
func (t *Tracker) ApplyBatch(b Batch) int {
	n := 0
	for _, tr := range b {
		if t.Apply(tr) {
			n++
		}
	}
	return n
}

// State returns a copy of the tracked state.
func (t *Tracker) State() State {
	return t.state
}

// Binding returns the tracker's binding.
func (t *Tracker) Binding() Binding {
	return t.binding
}
