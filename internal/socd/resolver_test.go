package socd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(k LogicalKey) Transition {
	return Transition{Code: DefaultBinding.Code(k), Down: true}
}

func release(k LogicalKey) Transition {
	return Transition{Code: DefaultBinding.Code(k), Down: false}
}

// allStates enumerates every real state with every axis winner,
// including unset winners.
func allStates() []State {
	lasts := func(a Axis) []LogicalKey {
		x, y := a.Members()
		return []LogicalKey{NoKey, x, y}
	}
	var out []State
	for mask := 0; mask < 1<<NumKeys; mask++ {
		for _, lv := range lasts(Vertical) {
			for _, lh := range lasts(Horizontal) {
				st := NewState()
				for _, k := range Keys {
					st.Real[k] = mask&(1<<k) != 0
				}
				st.LastPressed[Vertical] = lv
				st.LastPressed[Horizontal] = lh
				out = append(out, st)
			}
		}
	}
	return out
}

// reachable reports whether a tracker could have produced st.
func reachable(st State) bool {
	for _, a := range Axes {
		if st.Conflict(a) && st.LastPressed[a] == NoKey {
			return false
		}
		if !st.AxisIdle(a) && st.LastPressed[a] == NoKey {
			return false
		}
	}
	return true
}

func TestResolveIsDeterministic(t *testing.T) {
	for _, st := range allStates() {
		first := Resolve(st)
		second := Resolve(st)
		assert.Equal(t, first, second, "state %+v", st)
	}
}

func TestResolveMirrorsUncontestedAxes(t *testing.T) {
	for _, st := range allStates() {
		v := Resolve(st)
		for _, a := range Axes {
			if st.Conflict(a) {
				continue
			}
			x, y := a.Members()
			assert.Equal(t, st.Real[x], v[x], "state %+v axis %s", st, a)
			assert.Equal(t, st.Real[y], v[y], "state %+v axis %s", st, a)
		}
	}
}

func TestResolveConflictFavoursLastPressed(t *testing.T) {
	for _, st := range allStates() {
		if !reachable(st) {
			continue
		}
		v := Resolve(st)
		for _, a := range Axes {
			if !st.Conflict(a) {
				continue
			}
			w := st.LastPressed[a]
			assert.True(t, v[w], "winner %s should be reported for %+v", w, st)
			assert.False(t, v[Opposite(w)], "loser %s should be cleared for %+v", Opposite(w), st)
		}
	}
}

func TestResolveNeverReportsOpposites(t *testing.T) {
	for _, p := range []Policy{PolicyLast, PolicyFirst, PolicyNeutral} {
		for _, st := range allStates() {
			v := p.Resolve(st)
			for _, a := range Axes {
				x, y := a.Members()
				if v[x] && v[y] {
					t.Fatalf("policy %s reported both %s and %s for %+v", p, x, y, st)
				}
			}
		}
	}
}

func TestPolicies(t *testing.T) {
	st := NewState()
	st.Real[Left] = true
	st.Real[Right] = true
	st.LastPressed[Horizontal] = Right

	tests := []struct {
		policy Policy
		left   bool
		right  bool
	}{
		{PolicyLast, false, true},
		{PolicyFirst, true, false},
		{PolicyNeutral, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			v := tt.policy.Resolve(st)
			assert.Equal(t, tt.left, v[Left])
			assert.Equal(t, tt.right, v[Right])
			assert.False(t, v[Up])
			assert.False(t, v[Down])
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected Policy
		hasError bool
	}{
		{"", PolicyLast, false},
		{"last", PolicyLast, false},
		{"LAST", PolicyLast, false},
		{"first", PolicyFirst, false},
		{" neutral ", PolicyNeutral, false},
		{"random", PolicyLast, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePolicy(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestScenarios(t *testing.T) {
	t.Run("A: down after up", func(t *testing.T) {
		tr := NewTracker(DefaultBinding)
		tr.Apply(press(Up))
		tr.Apply(press(Down))
		v := Resolve(tr.State())
		assert.False(t, v[Up])
		assert.True(t, v[Down])
	})

	t.Run("B: release down with up held", func(t *testing.T) {
		tr := NewTracker(DefaultBinding)
		tr.Apply(press(Up))
		tr.Apply(press(Down))
		tr.Apply(release(Down))
		v := Resolve(tr.State())
		assert.True(t, v[Up])
		assert.False(t, v[Down])
	})

	t.Run("C: release left after right", func(t *testing.T) {
		tr := NewTracker(DefaultBinding)
		tr.ApplyBatch(Batch{press(Left), press(Right), release(Left)})
		v := Resolve(tr.State())
		assert.False(t, v[Left])
		assert.True(t, v[Right])
	})

	t.Run("D: orthogonal keys", func(t *testing.T) {
		tr := NewTracker(DefaultBinding)
		tr.ApplyBatch(Batch{press(Up), press(Left)})
		v := Resolve(tr.State())
		assert.Equal(t, Virtual{Up: true, Down: false, Left: true, Right: false}, v)
	})
}

// checkInvariants verifies the resolved output against a model that only
// remembers the last key pressed on each axis.
func checkInvariants(t *testing.T, st State, model [NumAxes]LogicalKey, v Virtual) {
	t.Helper()
	for _, a := range Axes {
		x, y := a.Members()
		require.False(t, v[x] && v[y], "both %s and %s reported", x, y)
		if st.Conflict(a) {
			require.True(t, v[model[a]], "expected %s to win %s", model[a], a)
		}
	}
	for _, k := range Keys {
		if v[k] {
			require.True(t, st.Real[k], "%s reported but not held", k)
		}
	}
}

func TestRandomInterleavings(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 50; round++ {
		tr := NewTracker(DefaultBinding)
		model := [NumAxes]LogicalKey{NoKey, NoKey}

		remaining := 1000
		for remaining > 0 {
			n := 1 + rng.Intn(4)
			if n > remaining {
				n = remaining
			}
			remaining -= n

			batch := make(Batch, 0, n)
			for i := 0; i < n; i++ {
				k := Keys[rng.Intn(NumKeys)]
				down := rng.Intn(2) == 0
				batch = append(batch, Transition{Code: DefaultBinding.Code(k), Down: down})
				if down {
					model[AxisOf(k)] = k
				}
			}
			tr.ApplyBatch(batch)

			st := tr.State()
			checkInvariants(t, st, model, Resolve(st))
		}
	}
}

func FuzzResolve(f *testing.F) {
	f.Add([]byte{0x01, 0x12, 0x10})
	f.Add([]byte{0x05, 0x07, 0x04, 0x06})
	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1000 {
			data = data[:1000]
		}
		tr := NewTracker(DefaultBinding)
		model := [NumAxes]LogicalKey{NoKey, NoKey}
		for _, b := range data {
			k := Keys[int(b)%NumKeys]
			down := b&0x04 != 0
			tr.Apply(Transition{Code: DefaultBinding.Code(k), Down: down})
			if down {
				model[AxisOf(k)] = k
			}
			st := tr.State()
			checkInvariants(t, st, model, Resolve(st))
		}
	})
}
