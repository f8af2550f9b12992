package socd

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineProcess(t *testing.T) {
	e := NewEngine(DefaultBinding)

	res := e.Process(Batch{press(Up), press(Down)})
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 1, res.Conflicts)
	assert.True(t, res.Changed())
	assert.Equal(t, Virtual{Down: true}, res.Virtual)

	st, v := e.Snapshot()
	assert.True(t, st.Real[Up])
	assert.True(t, st.Real[Down])
	assert.Equal(t, res.Virtual, v)
}

func TestEngineIgnoredBatchIsUnchanged(t *testing.T) {
	e := NewEngine(DefaultBinding)
	res := e.Process(Batch{{Code: 42, Down: true}})
	assert.False(t, res.Changed())
	assert.Equal(t, Virtual{}, res.Virtual)
}

func TestEngineSetPolicy(t *testing.T) {
	e := NewEngine(DefaultBinding, WithPolicy(PolicyNeutral))
	require.Equal(t, PolicyNeutral, e.Policy())

	res := e.Process(Batch{press(Left), press(Right)})
	assert.Equal(t, Virtual{}, res.Virtual)

	e.SetPolicy(PolicyFirst)
	due, ok := e.NextDue()
	require.True(t, ok, "policy change must be flushed")
	assert.False(t, due.After(time.Now()))

	res, ok = e.Flush()
	require.True(t, ok)
	assert.Equal(t, Virtual{Left: true}, res.Virtual)

	_, ok = e.Flush()
	assert.False(t, ok, "nothing left once the new policy was reported")

	e.SetPolicy(PolicyFirst)
	_, ok = e.Flush()
	assert.False(t, ok, "same policy is not a change")
}

func TestEngineUnboundBatchLeavesDeferralToFlush(t *testing.T) {
	e, clock := newSmoothEngine(true)

	e.Process(Batch{press(Left)})
	res := e.Process(Batch{press(Right)})
	require.True(t, res.Deferred)

	clock.Advance(DefaultFrame + time.Millisecond)
	res = e.Process(Batch{{Code: 57, Down: true}})
	assert.False(t, res.Changed())
	assert.Equal(t, Virtual{}, res.Virtual, "unbound batch reports the last resolved state")

	res, ok := e.Flush()
	require.True(t, ok, "due deferral must still be flushed")
	assert.Equal(t, Virtual{Right: true}, res.Virtual)
}

func TestEngineDisablingSmoothingReleasesDeferral(t *testing.T) {
	e, _ := newSmoothEngine(true)

	e.Process(Batch{press(Left)})
	res := e.Process(Batch{press(Right)})
	require.True(t, res.Deferred)

	e.SetSmoothing(DefaultSmoothingConfig())

	res, ok := e.Flush()
	require.True(t, ok, "withheld key must be reported after smoothing is turned off")
	assert.Equal(t, Virtual{Right: true}, res.Virtual)
	assert.False(t, res.Deferred)

	_, pending := e.NextDue()
	assert.False(t, pending)
}

func TestEngineSnapshotsAreWholeBatches(t *testing.T) {
	e := NewEngine(DefaultBinding)
	hold := Batch{press(Left), press(Right), press(Up), press(Down)}
	drop := Batch{release(Down), release(Up), release(Right), release(Left)}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			e.Process(hold)
			e.Process(drop)
		}
	}()

	for i := 0; i < 2000; i++ {
		st, v := e.Snapshot()
		all := st.Real[Up] && st.Real[Down] && st.Real[Left] && st.Real[Right]
		none := !st.Real[Up] && !st.Real[Down] && !st.Real[Left] && !st.Real[Right]
		if !all && !none {
			t.Fatalf("observed a partially applied batch: %+v", st.Real)
		}
		if v[Up] && v[Down] || v[Left] && v[Right] {
			t.Fatalf("observed opposing keys reported: %s", v)
		}
	}
	wg.Wait()
}
