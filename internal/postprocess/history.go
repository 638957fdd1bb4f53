package postprocess

// Buffer is a CPU RGB float image used by BlendHistory.
type Buffer struct {
	Width  int
	Height int
	Pix    []float32 // 3 floats per pixel, row major
}

// NewBuffer allocates a black buffer.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{Width: width, Height: height, Pix: make([]float32, width*height*3)}
}

func (b *Buffer) at(x, y int) []float32 {
	x = min(max(x, 0), b.Width-1)
	y = min(max(y, 0), b.Height-1)
	i := (y*b.Width + x) * 3
	return b.Pix[i : i+3]
}

// BlendHistory is the CPU counterpart of the TAA resolve for a static
// camera: history is clamped to the 3x3 neighbourhood of current and then
// blended toward current by blend. With historyValid false the output is
// current. dst may alias history.
func BlendHistory(dst, history, current *Buffer, blend float32, historyValid bool) {
	if !historyValid {
		copy(dst.Pix, current.Pix)
		return
	}
	for y := 0; y < current.Height; y++ {
		for x := 0; x < current.Width; x++ {
			c := current.at(x, y)
			var lo, hi [3]float32
			copy(lo[:], c)
			copy(hi[:], c)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					n := current.at(x+dx, y+dy)
					for k := 0; k < 3; k++ {
						lo[k] = min(lo[k], n[k])
						hi[k] = max(hi[k], n[k])
					}
				}
			}
			h := history.at(x, y)
			o := dst.at(x, y)
			for k := 0; k < 3; k++ {
				hv := min(max(h[k], lo[k]), hi[k])
				o[k] = hv + (c[k]-hv)*blend
			}
		}
	}
}

// MaxDiff returns the largest per-channel absolute difference.
func MaxDiff(a, b *Buffer) float32 {
	var d float32
	for i := range a.Pix {
		v := a.Pix[i] - b.Pix[i]
		if v < 0 {
			v = -v
		}
		d = max(d, v)
	}
	return d
}
