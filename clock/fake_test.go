package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_NowOnlyMovesOnAdvance(t *testing.T) {
	start := time.Unix(1000, 0).UTC()
	f := NewFake(start)

	assert.Equal(t, start, f.Now())

	f.Advance(250 * time.Millisecond)
	assert.Equal(t, start.Add(250*time.Millisecond), f.Now())
}

func TestFake_AfterFuncFiresAtDeadline(t *testing.T) {
	f := NewFake(time.Unix(0, 0).UTC())

	var fired []time.Time
	f.AfterFunc(500*time.Millisecond, func() {
		fired = append(fired, f.Now())
	})

	f.Advance(499 * time.Millisecond)
	require.Empty(t, fired, "timer must not fire before its deadline")

	f.Advance(1 * time.Millisecond)
	require.Len(t, fired, 1)
	assert.Equal(t, time.Unix(0, 0).UTC().Add(500*time.Millisecond), fired[0],
		"callback should observe its own deadline as Now()")
}

func TestFake_ZeroDurationFiresOnNextAdvance(t *testing.T) {
	f := NewFake(time.Unix(0, 0).UTC())

	fired := false
	f.AfterFunc(0, func() { fired = true })
	require.False(t, fired, "zero-duration timer fires on Advance, not on arm")

	f.Advance(0)
	assert.True(t, fired)
}

func TestFake_StopPreventsFire(t *testing.T) {
	f := NewFake(time.Unix(0, 0).UTC())

	fired := false
	timer := f.AfterFunc(100*time.Millisecond, func() { fired = true })

	require.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports the timer already dead")

	f.Advance(time.Second)
	assert.False(t, fired)
}

func TestFake_FiresInDeadlineOrder(t *testing.T) {
	f := NewFake(time.Unix(0, 0).UTC())

	var order []string
	f.AfterFunc(300*time.Millisecond, func() { order = append(order, "late") })
	f.AfterFunc(100*time.Millisecond, func() { order = append(order, "early") })
	f.AfterFunc(200*time.Millisecond, func() { order = append(order, "mid") })

	f.Advance(time.Second)
	assert.Equal(t, []string{"early", "mid", "late"}, order)
}

func TestFake_CallbackMayArmFollowupWithinSpan(t *testing.T) {
	f := NewFake(time.Unix(0, 0).UTC())

	var fired []string
	f.AfterFunc(100*time.Millisecond, func() {
		fired = append(fired, "first")
		f.AfterFunc(100*time.Millisecond, func() {
			fired = append(fired, "second")
		})
	})

	// One Advance spans both deadlines; the chained timer fires too.
	f.Advance(time.Second)
	assert.Equal(t, []string{"first", "second"}, fired)
}

func TestFake_TieBreaksByArmingOrder(t *testing.T) {
	f := NewFake(time.Unix(0, 0).UTC())

	var order []string
	f.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	f.AfterFunc(100*time.Millisecond, func() { order = append(order, "b") })

	f.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
}
