package autosave

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_LoadReplacesValueWholesale(t *testing.T) {
	c := NewContainer[testState]()
	require.False(t, c.Loaded())

	got, err := c.Load(context.Background(), func(context.Context) (testState, error) {
		return testState{Theme: "light", Counter: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, testState{Theme: "light", Counter: 7}, got)
	assert.True(t, c.Loaded())
	assert.Equal(t, got, c.Snapshot())
}

func TestContainer_LoadFailureKeepsPriorValue(t *testing.T) {
	c := NewContainer[testState]()
	_, err := c.Load(context.Background(), func(context.Context) (testState, error) {
		return testState{Theme: "light"}, nil
	})
	require.NoError(t, err)

	_, err = c.Load(context.Background(), func(context.Context) (testState, error) {
		return testState{}, errors.New("backend down")
	})
	require.True(t, IsLoadError(err))
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.EqualError(t, lerr.Err, "backend down")

	assert.Equal(t, "light", c.Snapshot().Theme, "failed load must not clobber the value")
}

func TestContainer_UpdateSignalsOncePerCall(t *testing.T) {
	c := NewContainer[testState]()
	signals := 0
	c.attach(func() { signals++ })

	c.Update(func(s *testState) {
		// Several field writes are one logical mutation.
		s.Counter = 1
		s.Theme = "dark"
	})
	c.Update(func(s *testState) { s.Counter = 2 })

	assert.Equal(t, 2, signals)
}

func TestContainer_UpdateWithoutSynchronizerIsSafe(t *testing.T) {
	c := NewContainer[testState]()
	c.Update(func(s *testState) { s.Counter = 1 })
	assert.Equal(t, 1, c.Snapshot().Counter)
}

func TestContainer_SnapshotIsDeepCopy(t *testing.T) {
	c := NewContainer[testState]()
	c.Update(func(s *testState) {
		s.Tags = []string{"a"}
		s.Attrs = map[string]string{"k": "v"}
	})

	snap := c.Snapshot()
	c.Update(func(s *testState) {
		s.Tags[0] = "mutated"
		s.Attrs["k"] = "mutated"
	})

	assert.Equal(t, []string{"a"}, snap.Tags)
	assert.Equal(t, map[string]string{"k": "v"}, snap.Attrs)
}
