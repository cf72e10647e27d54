package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGetRoundTrip(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	mtime := time.Unix(1700000000, 0)
	require.NoError(t, s.Put("foo.bs", 10, 20, mtime, "a doc comment"))

	text, ok := s.Get("foo.bs", 10, 20, mtime)
	require.True(t, ok)
	assert.Equal(t, "a doc comment", text)
}

func TestStoreGetMissesOnStaleMtime(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	mtime := time.Unix(1700000000, 0)
	require.NoError(t, s.Put("foo.bs", 10, 20, mtime, "stale"))

	_, ok := s.Get("foo.bs", 10, 20, mtime.Add(time.Second))
	assert.False(t, ok, "changed mtime must invalidate the cache entry")
}

func TestInvalidateFileDropsEntries(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	mtime := time.Unix(1700000000, 0)
	require.NoError(t, s.Put("foo.bs", 0, 5, mtime, "x"))
	require.NoError(t, s.InvalidateFile("foo.bs"))

	_, ok := s.Get("foo.bs", 0, 5, mtime)
	assert.False(t, ok)
}
