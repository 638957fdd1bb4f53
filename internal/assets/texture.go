package assets

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// MaxTextureSize bounds the longest side of decoded textures. Larger
// images are downscaled on the decoding goroutine.
const MaxTextureSize = 2048

type textureFormat struct {
	name   string
	magic  string // '?' matches any byte
	decode func(io.Reader) (image.Image, error)
}

// The tga package registers itself with image.RegisterFormat under an empty
// magic, which makes image.Decode hand it every input. Formats are therefore
// dispatched here, and TGA, which has no signature, is the fallback.
var textureFormats = []textureFormat{
	{"png", "\x89PNG\r\n\x1a\n", png.Decode},
	{"jpeg", "\xff\xd8", jpeg.Decode},
	{"bmp", "BM????\x00\x00\x00\x00", bmp.Decode},
	{"webp", "RIFF????WEBPVP8", webp.Decode},
}

func matchMagic(magic string, b []byte) bool {
	if len(magic) != len(b) {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}

// sniff picks the decoder for the data in br without consuming it.
func sniff(br *bufio.Reader) textureFormat {
	for _, f := range textureFormats {
		b, err := br.Peek(len(f.magic))
		if err == nil && matchMagic(f.magic, b) {
			return f
		}
	}
	return textureFormat{name: "tga", decode: tga.Decode}
}

// DecodeTexture decodes PNG, JPEG, BMP, WebP or TGA data into tightly
// packed RGBA, downscaling images wider or taller than maxSize. maxSize <= 0
// disables scaling. Data matching no known signature is decoded as TGA.
func DecodeTexture(r io.Reader, maxSize int) (*image.RGBA, error) {
	br := bufio.NewReader(r)
	f := sniff(br)
	return decodeAs(f, br, maxSize)
}

func decodeAs(f textureFormat, r io.Reader, maxSize int) (*image.RGBA, error) {
	img, err := f.decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", f.name, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("failed to decode image: empty %dx%d", w, h)
	}

	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(rgba, rgba.Bounds(), img, b, xdraw.Src, nil)
		return rgba, nil
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba, nil
}

// LoadTextureFile opens and decodes path. A .tga extension selects the TGA
// decoder directly.
func LoadTextureFile(path string, maxSize int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file: %w", err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return decodeAs(textureFormat{name: "tga", decode: tga.Decode}, f, maxSize)
	}
	return DecodeTexture(f, maxSize)
}
