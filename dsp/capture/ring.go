package capture

import "sync/atomic"

// ring is a single-producer single-consumer queue of interleaved samples.
// The audio path is the producer and the drain goroutine the consumer.
type ring struct {
	buf  []float64
	mask uint64
	head atomic.Uint64 // next write position, owned by the producer
	tail atomic.Uint64 // next read position, owned by the consumer
}

func newRing(minSize int) *ring {
	size := 1
	for size < minSize {
		size <<= 1
	}

	return &ring{buf: make([]float64, size), mask: uint64(size - 1)}
}

// free returns the number of samples that can be written.
func (r *ring) free() int {
	return len(r.buf) - int(r.head.Load()-r.tail.Load())
}

// put appends one sample. The caller checks free beforehand.
func (r *ring) put(head uint64, v float64) {
	r.buf[head&r.mask] = v
}

// commit publishes n samples written with put.
func (r *ring) commit(n int) {
	r.head.Add(uint64(n))
}

// drainTo appends every readable sample to dst.
func (r *ring) drainTo(dst []float64) []float64 {
	tail := r.tail.Load()
	head := r.head.Load()

	for i := tail; i != head; i++ {
		dst = append(dst, r.buf[i&r.mask])
	}

	r.tail.Store(head)

	return dst
}
