package core

// NewPlanar allocates channels buffers of frames samples each.
func NewPlanar(channels, frames int) [][]float64 {
	out := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, frames)
	}

	return out
}

// ZeroPlanar clears the first frames samples of every channel.
func ZeroPlanar(buf [][]float64, frames int) {
	for _, ch := range buf {
		clear(ch[:min(frames, len(ch))])
	}
}

// View reslices src[c][from:to] into dst without allocating and returns
// dst trimmed to len(src). dst must have room for len(src) channels.
func View(dst, src [][]float64, from, to int) [][]float64 {
	dst = dst[:len(src)]
	for c, ch := range src {
		dst[c] = ch[from:to]
	}

	return dst
}

// Frames returns the common frame count of a planar block, which is the
// length of its shortest channel.
func Frames(block [][]float64) int {
	if len(block) == 0 {
		return 0
	}

	n := len(block[0])
	for _, ch := range block[1:] {
		n = min(n, len(ch))
	}

	return n
}
