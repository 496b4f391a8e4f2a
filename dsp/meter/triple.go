package meter

import "sync/atomic"

const freshBit = 1 << 2

// tripleBuffer hands complete windows from one writer to one reader
// without either side ever waiting. The writer owns back, the reader owns
// front, and the middle slot is exchanged atomically.
type tripleBuffer struct {
	bufs   [3][]float64
	middle atomic.Uint32
	back   uint32
	front  uint32
}

func newTripleBuffer(size int) *tripleBuffer {
	tb := &tripleBuffer{back: 0, front: 2}
	for i := range tb.bufs {
		tb.bufs[i] = make([]float64, size)
	}

	tb.middle.Store(1)

	return tb
}

// writeBuffer returns the slot the writer fills next.
func (tb *tripleBuffer) writeBuffer() []float64 {
	return tb.bufs[tb.back]
}

// publish makes the filled write slot available to the reader.
func (tb *tripleBuffer) publish() {
	old := tb.middle.Swap(tb.back | freshBit)
	tb.back = old &^ freshBit
}

// acquire returns the most recently published slot and whether it is new
// since the previous call.
func (tb *tripleBuffer) acquire() ([]float64, bool) {
	if tb.middle.Load()&freshBit == 0 {
		return tb.bufs[tb.front], false
	}

	old := tb.middle.Swap(tb.front)
	tb.front = old &^ freshBit

	return tb.bufs[tb.front], true
}
