// Package imageio decodes image files into imagebuf.Image8 buffers for
// the CLI and debug-overlay sink. Never imported by internal/detector:
// the detection pipeline only ever sees an already-decoded Image8.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"

	"github.com/aprilgo/apriltag/internal/imagebuf"
)

// ReadGray8 reads an image file (PNG, JPEG, BMP, or raw PGM) from path
// and converts it to grayscale.
func ReadGray8(path string) (*imagebuf.Image8, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: read %s: %w", path, err)
	}
	return DecodeGray8(data)
}

// DecodeGray8 decodes image bytes (any format image.Decode supports, or
// a PGM raw/plain file) into a grayscale Image8.
func DecodeGray8(data []byte) (*imagebuf.Image8, error) {
	if img, ok := decodePGM(data); ok {
		return img, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageio: decode: %w", err)
	}
	return fromImage(src), nil
}

// fromImage converts an arbitrary image.Image to grayscale Image8 via
// the standard luminance-weighted conversion.
func fromImage(src image.Image) *imagebuf.Image8 {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := imagebuf.NewImage8(w, h)
	for y := range h {
		for x := range w {
			c := color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			dst.Set(x, y, c.Y)
		}
	}
	return dst
}

// WritePNG encodes img as an 8-bit grayscale PNG to w.
func WritePNG(w io.Writer, img *imagebuf.Image8) error {
	gray := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	for y := range img.Height {
		for x := range img.Width {
			gray.SetGray(x, y, color.Gray{Y: img.At(x, y)})
		}
	}
	return png.Encode(w, gray)
}
