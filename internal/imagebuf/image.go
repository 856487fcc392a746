// Package imagebuf provides the dense grayscale and float image buffers
// the detection pipeline operates on, plus decimation and blur stages.
package imagebuf

import (
	"fmt"

	"github.com/aprilgo/apriltag/internal/mempool"
)

// Image8 is a row-major 8-bit grayscale image with an explicit stride so
// rows may be padded for alignment. The origin is the top-left pixel.
type Image8 struct {
	Width  int
	Height int
	Stride int
	Pix    []uint8
}

// NewImage8 allocates a new Image8 with no row padding (Stride == Width).
func NewImage8(width, height int) *Image8 {
	return &Image8{
		Width:  width,
		Height: height,
		Stride: width,
		Pix:    mempool.GetUint8(width * height),
	}
}

// Release returns the backing buffer to the shared pool. The Image8 must
// not be used afterward.
func (im *Image8) Release() {
	if im == nil {
		return
	}
	mempool.PutUint8(im.Pix)
	im.Pix = nil
}

// At returns the pixel value at (x,y). Out-of-bounds access panics, per
// the "bounded indexing" contract in the data model.
func (im *Image8) At(x, y int) uint8 {
	im.checkBounds(x, y)
	return im.Pix[y*im.Stride+x]
}

// Set writes the pixel value at (x,y).
func (im *Image8) Set(x, y int, v uint8) {
	im.checkBounds(x, y)
	im.Pix[y*im.Stride+x] = v
}

func (im *Image8) checkBounds(x, y int) {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		panic(fmt.Sprintf("imagebuf: index (%d,%d) out of bounds for %dx%d image", x, y, im.Width, im.Height))
	}
}

// AtClamped reads a pixel, clamping out-of-range coordinates to the image
// border. Used by bilinear sampling near quad edges.
func (im *Image8) AtClamped(x, y int) uint8 {
	if x < 0 {
		x = 0
	}
	if x >= im.Width {
		x = im.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= im.Height {
		y = im.Height - 1
	}
	return im.Pix[y*im.Stride+x]
}

// BilinearSample samples the image at fractional coordinates (x,y) using
// bilinear interpolation with clamped borders.
func (im *Image8) BilinearSample(x, y float64) float64 {
	x0 := int(x)
	y0 := int(y)
	fx := x - float64(x0)
	fy := y - float64(y0)

	p00 := float64(im.AtClamped(x0, y0))
	p10 := float64(im.AtClamped(x0+1, y0))
	p01 := float64(im.AtClamped(x0, y0+1))
	p11 := float64(im.AtClamped(x0+1, y0+1))

	top := p00 + (p10-p00)*fx
	bottom := p01 + (p11-p01)*fx
	return top + (bottom-top)*fy
}

// ImageF32 is a row-major float32 image, used for blur intermediates.
type ImageF32 struct {
	Width  int
	Height int
	Stride int
	Pix    []float32
}

// NewImageF32 allocates a new ImageF32 with no row padding.
func NewImageF32(width, height int) *ImageF32 {
	return &ImageF32{
		Width:  width,
		Height: height,
		Stride: width,
		Pix:    mempool.GetFloat32(width * height),
	}
}

// Release returns the backing buffer to the shared pool.
func (im *ImageF32) Release() {
	if im == nil {
		return
	}
	mempool.PutFloat32(im.Pix)
	im.Pix = nil
}

// At returns the pixel value at (x,y).
func (im *ImageF32) At(x, y int) float32 {
	return im.Pix[y*im.Stride+x]
}

// Set writes the pixel value at (x,y).
func (im *ImageF32) Set(x, y int, v float32) {
	im.Pix[y*im.Stride+x] = v
}

// FromImage8 converts an Image8 to an ImageF32 with the same dimensions.
func FromImage8(src *Image8) *ImageF32 {
	dst := NewImageF32(src.Width, src.Height)
	for y := range src.Height {
		for x := range src.Width {
			dst.Set(x, y, float32(src.At(x, y)))
		}
	}
	return dst
}

// ToImage8 converts an ImageF32 back to Image8, clamping to [0,255].
func (im *ImageF32) ToImage8() *Image8 {
	dst := NewImage8(im.Width, im.Height)
	for y := range im.Height {
		for x := range im.Width {
			v := im.At(x, y)
			switch {
			case v < 0:
				v = 0
			case v > 255:
				v = 255
			}
			dst.Set(x, y, uint8(v))
		}
	}
	return dst
}
