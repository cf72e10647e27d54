package rtsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadSendRunsOnOwnGoroutine(t *testing.T) {
	th := NewThread("Other")
	defer th.Stop()

	var ran bool
	err := th.Send(context.Background(), func() { ran = true })
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestCrossThreadCloneIsolatesGraphs(t *testing.T) {
	type node struct{ v int }
	original := []*node{{1}, {2}, {3}}

	env := NewCloneEnv()
	cloned := make([]*node, len(original))
	for i, n := range original {
		cloned[i] = env.Clone(n, func() any { return &node{v: n.v} }).(*node)
	}

	cloned[0].v = 99
	assert.Equal(t, 1, original[0].v, "mutating the clone must not affect the caller's original graph")
}

func TestObjMapTracksReplacements(t *testing.T) {
	m := NewObjMap()
	oldT, newT := "old", "new"
	m.Put(oldT, newT)

	got, ok := m.Get(oldT)
	require.True(t, ok)
	assert.Equal(t, newT, got)
	assert.Equal(t, 1, m.Len())
}
