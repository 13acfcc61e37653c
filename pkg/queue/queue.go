package queue

import "sync"

const (
	// OutboundBufferSize is the per-session outbound line capacity. A
	// client that falls this far behind is treated as disconnected.
	OutboundBufferSize = 1024
)

// Outbound buffers serialized packet lines for a single connection
// writer, so one stalled client cannot block the goroutine producing
// packets for another.
type Outbound struct {
	ch     chan string
	lock   sync.Mutex
	closed bool
}

// NewOutbound creates an outbound line queue.
func NewOutbound(size int) *Outbound {
	if size <= 0 {
		size = OutboundBufferSize
	}
	return &Outbound{
		ch: make(chan string, size),
	}
}

// Enqueue adds a line to the queue. It reports false when the queue is
// closed or full; the caller treats either as a dead connection.
func (q *Outbound) Enqueue(line string) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- line:
		return true
	default:
		return false
	}
}

// Dequeue blocks until a line is available. ok is false once the queue
// is closed and drained.
func (q *Outbound) Dequeue() (line string, ok bool) {
	line, ok = <-q.ch
	return line, ok
}

// Close stops the queue. Pending lines are still delivered.
func (q *Outbound) Close() {
	q.lock.Lock()
	defer q.lock.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Size returns the number of pending lines.
func (q *Outbound) Size() int {
	return len(q.ch)
}
