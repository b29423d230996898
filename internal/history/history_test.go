package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/reclip/internal/snapshot"
)

func text(s string) snapshot.Snapshot {
	return snapshot.Snapshot{{Format: "text/plain", Data: []byte(s)}}
}

func TestEmptyStore(t *testing.T) {
	s := New(3)

	_, ok := s.Front()
	assert.False(t, ok)
	_, ok = s.PopFront()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	// ReplaceFront on an empty store is a no-op, not a panic.
	s.ReplaceFront(text("x"))
	assert.Equal(t, 0, s.Len())
}

func TestPushFrontOrdering(t *testing.T) {
	s := New(5)
	s.PushFront(text("a"))
	s.PushFront(text("b"))
	s.PushFront(text("c"))

	front, ok := s.Front()
	require.True(t, ok)
	assert.Equal(t, text("c"), front)
	assert.Equal(t, []snapshot.Snapshot{text("c"), text("b"), text("a")}, s.Entries())
}

func TestCapacityBound(t *testing.T) {
	const max = 4
	s := New(max)
	for i := 0; i < 20; i++ {
		s.PushFront(text(fmt.Sprintf("entry-%d", i)))
		assert.LessOrEqual(t, s.Len(), max)
	}
	assert.Equal(t, max, s.Len())
}

func TestEvictionOrder(t *testing.T) {
	s := New(2)
	s.PushFront(text("a"))
	s.PushFront(text("b"))
	s.PushFront(text("c"))

	assert.Equal(t, []snapshot.Snapshot{text("c"), text("b")}, s.Entries())
}

func TestReplaceFront(t *testing.T) {
	s := New(3)
	s.PushFront(text("a"))
	s.PushFront(text("b"))

	s.ReplaceFront(text("b2"))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []snapshot.Snapshot{text("b2"), text("a")}, s.Entries())
}

func TestPopFront(t *testing.T) {
	s := New(3)
	s.PushFront(text("a"))
	s.PushFront(text("b"))

	popped, ok := s.PopFront()
	require.True(t, ok)
	assert.Equal(t, text("b"), popped)

	front, ok := s.Front()
	require.True(t, ok)
	assert.Equal(t, text("a"), front)

	_, ok = s.PopFront()
	require.True(t, ok)
	_, ok = s.PopFront()
	assert.False(t, ok)
}

func TestCapacityFloor(t *testing.T) {
	s := New(0)
	assert.Equal(t, 1, s.Cap())
	s.PushFront(text("a"))
	s.PushFront(text("b"))
	assert.Equal(t, 1, s.Len())
}

func TestClear(t *testing.T) {
	s := New(3)
	s.PushFront(text("a"))
	s.PushFront(text("b"))
	s.Clear()
	assert.Equal(t, 0, s.Len())
	_, ok := s.Front()
	assert.False(t, ok)
}
