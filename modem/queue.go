package modem

import "sync"

// RingQueue is a fixed-capacity byte FIFO with overwrite-on-full
// semantics. It absorbs socket data pulled by the dispatcher until the
// application reads it.
//
// Push never blocks: once the queue is full each new byte evicts the
// oldest one. Evicted bytes are not reported to the reader; Dropped
// exposes a running count so the loss can at least be observed.
type RingQueue struct {
	mu sync.Mutex
	// buf has one spare slot so that head == tail always means empty
	buf     []byte
	head    int
	tail    int
	dropped uint64
}

// NewRingQueue returns an empty queue holding up to capacity bytes.
func NewRingQueue(capacity int) *RingQueue {
	return &RingQueue{buf: make([]byte, capacity+1)}
}

// Push appends p, dropping the oldest bytes if needed. It returns len(p).
func (q *RingQueue) Push(p []byte) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, b := range p {
		q.buf[q.tail] = b
		q.tail = q.next(q.tail)
		if q.tail == q.head {
			q.head = q.next(q.head)
			q.dropped++
		}
	}
	return len(p)
}

// Pop moves up to len(p) bytes into p in FIFO order and returns the
// count. It returns 0 when the queue is empty.
func (q *RingQueue) Pop(p []byte) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for n < len(p) && q.head != q.tail {
		p[n] = q.buf[q.head]
		q.head = q.next(q.head)
		n++
	}
	return n
}

// Len returns the number of buffered bytes.
func (q *RingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tail >= q.head {
		return q.tail - q.head
	}
	return len(q.buf) - q.head + q.tail
}

// Cap returns the number of bytes the queue holds before overwriting.
func (q *RingQueue) Cap() int {
	return len(q.buf) - 1
}

// Dropped returns how many bytes were overwritten since the last Reset.
func (q *RingQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Reset discards all buffered bytes.
func (q *RingQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.head, q.tail, q.dropped = 0, 0, 0
}

func (q *RingQueue) next(i int) int {
	i++
	if i == len(q.buf) {
		return 0
	}
	return i
}
