package imagebuf

import "math"

// GaussianBlur applies a separable Gaussian low-pass filter with the given
// sigma (in pixels) to src and returns a new image. sigma must be > 0;
// callers should skip blurring when quad_sigma == 0.
func GaussianBlur(src *Image8, sigma float64) *Image8 {
	kernel := gaussianKernel(sigma)
	tmp := convolveHorizontal(src, kernel)
	return convolveVertical(tmp, kernel)
}

// Sharpen applies unsharp masking: dst = src + amount*(src - blur(src)).
// Used when quad_sigma is negative, per the detector's blur/sharpen knob.
func Sharpen(src *Image8, sigma, amount float64) *Image8 {
	blurred := GaussianBlur(src, sigma)
	dst := NewImage8(src.Width, src.Height)
	for y := range src.Height {
		for x := range src.Width {
			orig := float64(src.At(x, y))
			low := float64(blurred.At(x, y))
			v := orig + amount*(orig-low)
			dst.Set(x, y, clampByte(v))
		}
	}
	blurred.Release()
	return dst
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// gaussianKernel builds a normalized 1D Gaussian kernel spanning
// +/-3*sigma, with a minimum radius of 1.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(sigma * 3))
	if radius < 1 {
		radius = 1
	}
	size := 2*radius + 1
	kernel := make([]float64, size)
	var sum float64
	for i := range size {
		d := float64(i - radius)
		v := math.Exp(-(d * d) / (2 * sigma * sigma))
		kernel[i] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func convolveHorizontal(src *Image8, kernel []float64) *ImageF32 {
	radius := len(kernel) / 2
	dst := NewImageF32(src.Width, src.Height)
	for y := range src.Height {
		for x := range src.Width {
			var acc float64
			for k, w := range kernel {
				sx := x + k - radius
				acc += float64(src.AtClamped(sx, y)) * w
			}
			dst.Set(x, y, float32(acc))
		}
	}
	return dst
}

func convolveVertical(src *ImageF32, kernel []float64) *Image8 {
	radius := len(kernel) / 2
	dst := NewImage8(src.Width, src.Height)
	for y := range src.Height {
		for x := range src.Width {
			var acc float64
			for k, w := range kernel {
				sy := y + k - radius
				if sy < 0 {
					sy = 0
				}
				if sy >= src.Height {
					sy = src.Height - 1
				}
				acc += float64(src.At(x, sy)) * w
			}
			dst.Set(x, y, clampByte(acc))
		}
	}
	return dst
}
