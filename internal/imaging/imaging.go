// Package imaging shrinks picked photos before upload.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxEdge = 1600
	DefaultQuality = 70
)

// ErrUnsupportedFormat is returned for images the decoder cannot read. Callers
// upload the original bytes in that case.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Processor resizes an image so its longest edge fits MaxEdge and re-encodes
// it as JPEG at Quality.
type Processor struct {
	MaxEdge int
	Quality int
}

// NewProcessor returns a processor, falling back to defaults for zero values.
func NewProcessor(maxEdge, quality int) *Processor {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Processor{MaxEdge: maxEdge, Quality: quality}
}

// Process returns the re-encoded image and its mime type.
func (p *Processor) Process(data []byte) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedFormat
		}
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	dst := p.resize(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func (p *Processor) resize(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if longest <= p.MaxEdge {
		return src
	}

	nw := w * p.MaxEdge / longest
	nh := h * p.MaxEdge / longest
	dst := image.NewRGBA(image.Rect(0, 0, max(nw, 1), max(nh, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// ScaledSize reports the dimensions Process would produce for a w x h image.
func (p *Processor) ScaledSize(w, h int) (int, int) {
	longest := max(w, h)
	if longest <= p.MaxEdge {
		return w, h
	}
	return max(w*p.MaxEdge/longest, 1), max(h*p.MaxEdge/longest, 1)
}
