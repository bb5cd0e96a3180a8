package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Sentinel errors for raster images.
var (
	ErrImageDecode = errors.New("image decode failed")
	ErrImageEncode = errors.New("image encode failed")
)

// RasterEncoder re-encodes raster images as lossless WebP.
type RasterEncoder struct {
	// maxWidth downscales wider images when positive. Zero keeps every pixel.
	maxWidth int
}

// NewRasterEncoder creates an encoder. maxWidth <= 0 disables resizing.
func NewRasterEncoder(maxWidth int) *RasterEncoder {
	if maxWidth < 0 {
		maxWidth = 0
	}
	return &RasterEncoder{maxWidth: maxWidth}
}

// Encode decodes a png, jpeg, gif, webp, bmp or tiff image from r and returns
// it as lossless WebP.
func (e *RasterEncoder) Encode(r io.Reader) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if e.maxWidth > 0 && w > e.maxWidth {
		newH := h * e.maxWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewNRGBA(image.Rect(0, 0, e.maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageEncode, err)
	}
	return buf.Bytes(), nil
}
