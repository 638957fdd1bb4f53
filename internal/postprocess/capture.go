package postprocess

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/HugoSmits86/nativewebp"
	xdraw "golang.org/x/image/draw"
)

var errNothingResolved = errors.New("postprocess: no resolved frame to capture")

// Capture reads back the buffer the last Resolve presented and writes it to
// w as a lossless WebP. Images wider than maxWidth are downscaled first; 0
// keeps the native size. The window back buffer is undefined after a swap,
// so the offscreen copy is read instead; Capture fails until a frame has
// been resolved.
func (p *Pipeline) Capture(w io.Writer, maxWidth int) error {
	if p.final == nil {
		return errNothingResolved
	}
	img := p.dev.ReadPixels(p.final)
	if err := nativewebp.Encode(w, Downscale(img, maxWidth), nil); err != nil {
		return fmt.Errorf("could not encode capture: %w", err)
	}
	return nil
}

// Downscale returns img resized to maxWidth preserving aspect, or img
// itself when it already fits.
func Downscale(img *image.RGBA, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := max(1, b.Dy()*maxWidth/b.Dx())
	out := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}
