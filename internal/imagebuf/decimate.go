package imagebuf

// Decimate downsamples src by the given integer factor using nearest
// neighbour sampling. factor must be >= 2; callers should skip decimation
// entirely for factor <= 1 (quad_decimate's "1 disables" rule).
func Decimate(src *Image8, factor int) *Image8 {
	if factor < 2 {
		return src
	}
	newW := src.Width / factor
	newH := src.Height / factor
	dst := NewImage8(newW, newH)
	for y := range newH {
		sy := y * factor
		for x := range newW {
			sx := x * factor
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

// UndecimateScale returns the scale factor to map coordinates in a
// decimated image back to the original image's coordinate space.
func UndecimateScale(factor int) float64 {
	if factor < 2 {
		return 1
	}
	return float64(factor)
}
