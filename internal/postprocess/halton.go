package postprocess

import "github.com/go-gl/mathgl/mgl32"

// JitterPhases is the length of the jitter cycle.
const JitterPhases = 8

// Halton returns the index-th element (index >= 1) of the radical inverse
// sequence in the given base.
func Halton(index, base uint64) float32 {
	f := 1.0
	r := 0.0
	for i := index; i > 0; i /= base {
		f /= float64(base)
		r += f * float64(i%base)
	}
	return float32(r)
}

// JitterOffset returns the sub-pixel offset for frame, in pixels within
// [-0.5, 0.5), from the Halton(2,3) sequence.
func JitterOffset(frame uint64) mgl32.Vec2 {
	i := frame%JitterPhases + 1
	return mgl32.Vec2{Halton(i, 2) - 0.5, Halton(i, 3) - 0.5}
}
