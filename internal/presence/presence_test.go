package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAddRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Add(ctx, "alice", "c1"))
	require.NoError(t, s.Add(ctx, "alice", "c2"))
	require.NoError(t, s.Add(ctx, "bob", "c3"))

	conns, err := s.Connections(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2"}, conns)

	require.NoError(t, s.Remove(ctx, "alice", "c1"))
	conns, err = s.Connections(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, conns)

	require.NoError(t, s.Remove(ctx, "alice", "c2"))
	conns, err = s.Connections(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestMemoryStoreAddIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Add(ctx, "alice", "c1"))
	require.NoError(t, s.Add(ctx, "alice", "c1"))

	conns, err := s.Connections(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, conns)
}

func TestMemoryStoreRemoveUnknown(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	assert.NoError(t, s.Remove(ctx, "ghost", "c1"))
}
