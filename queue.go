package rstream

// chunkQueue holds chunks that were enqueued while no read was waiting.
// Delivery order is insertion order.
type chunkQueue[T any] struct {
	items []T
	head  int
}

func (q *chunkQueue[T]) push(v T) {
	q.items = append(q.items, v)
}

func (q *chunkQueue[T]) pop() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	// Compact once the consumed prefix dominates the backing array.
	if q.head > 32 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v, true
}

func (q *chunkQueue[T]) len() int {
	return len(q.items) - q.head
}

func (q *chunkQueue[T]) reset() {
	q.items = nil
	q.head = 0
}

// pendingReads is the FIFO of read futures waiting on an empty queue.
type pendingReads[T any] struct {
	futs []*Future[ReadResult[T]]
}

func (p *pendingReads[T]) push(f *Future[ReadResult[T]]) {
	p.futs = append(p.futs, f)
}

func (p *pendingReads[T]) shift() (*Future[ReadResult[T]], bool) {
	if len(p.futs) == 0 {
		return nil, false
	}
	f := p.futs[0]
	p.futs[0] = nil
	p.futs = p.futs[1:]
	return f, true
}

// remove drops f from the list, preserving the order of the others.
// It reports whether f was still pending.
func (p *pendingReads[T]) remove(f *Future[ReadResult[T]]) bool {
	for i, pf := range p.futs {
		if pf == f {
			p.futs = append(p.futs[:i], p.futs[i+1:]...)
			return true
		}
	}
	return false
}

// drain empties the list and returns its former contents in order.
func (p *pendingReads[T]) drain() []*Future[ReadResult[T]] {
	futs := p.futs
	p.futs = nil
	return futs
}

func (p *pendingReads[T]) len() int {
	return len(p.futs)
}
