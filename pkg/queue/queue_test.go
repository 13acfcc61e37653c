package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboundOrdering(t *testing.T) {
	q := NewOutbound(4)
	require.True(t, q.Enqueue("a"))
	require.True(t, q.Enqueue("b"))
	assert.Equal(t, 2, q.Size())

	line, ok := q.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "a", line)
	line, ok = q.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "b", line)
}

func TestOutboundFull(t *testing.T) {
	q := NewOutbound(2)
	assert.True(t, q.Enqueue("a"))
	assert.True(t, q.Enqueue("b"))
	// A full queue rejects instead of blocking the producer.
	assert.False(t, q.Enqueue("c"))
}

func TestOutboundClose(t *testing.T) {
	q := NewOutbound(4)
	require.True(t, q.Enqueue("a"))
	q.Close()

	assert.False(t, q.Enqueue("b"))

	// Lines enqueued before the close still drain.
	line, ok := q.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "a", line)

	_, ok = q.Dequeue()
	assert.False(t, ok)

	// Closing twice is fine.
	q.Close()
}
