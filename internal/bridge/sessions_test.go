package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewSessions(nil)

	_, err := s.Get("1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	first := newFakeSession("a")
	s.Put(ctx, "1", first)
	got, err := s.Get("1")
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, 1, s.Len())

	second := newFakeSession("b")
	s.Put(ctx, "1", second)
	assert.True(t, first.isClosed(), "replaced session is closed")
	assert.Equal(t, 1, s.Len())

	assert.False(t, s.Remove(ctx, "1", first), "stale session does not evict its replacement")
	got, err = s.Get("1")
	require.NoError(t, err)
	assert.Same(t, second, got)

	assert.True(t, s.Remove(ctx, "1", second))
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Remove(ctx, "1", second))
}

func TestSessions_CloseAll(t *testing.T) {
	ctx := context.Background()
	s := NewSessions(nil)
	a, b := newFakeSession("a"), newFakeSession("b")
	s.Put(ctx, "1", a)
	s.Put(ctx, "2", b)

	s.CloseAll(ctx)
	assert.Equal(t, 0, s.Len())
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
}
