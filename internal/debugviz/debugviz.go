// Package debugviz renders a detection overlay onto the source image,
// adapted from the teacher's overlay rendering pattern for the
// Detector.Config.Debug sink.
package debugviz

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/aprilgo/apriltag/internal/detector"
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/imagebuf"
)

// Options controls overlay colors.
type Options struct {
	OutlineColor color.Color
	CornerColor  color.Color
	CenterColor  color.Color
}

// DefaultOptions returns the package's default overlay colors.
func DefaultOptions() Options {
	return Options{
		OutlineColor: color.RGBA{R: 255, G: 0, B: 0, A: 255},
		CornerColor:  color.RGBA{R: 0, G: 255, B: 0, A: 255},
		CenterColor:  color.RGBA{R: 0, G: 0, B: 255, A: 255},
	}
}

// Render draws dets' outlines, corners, and centers over src and returns
// a new RGBA image.
func Render(src *imagebuf.Image8, dets []detector.Detection, opts Options) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	gray := image.NewGray(image.Rect(0, 0, src.Width, src.Height))
	for y := range src.Height {
		for x := range src.Width {
			gray.SetGray(x, y, color.Gray{Y: src.At(x, y)})
		}
	}
	draw.Draw(dst, dst.Bounds(), gray, image.Point{}, draw.Src)

	for _, d := range dets {
		drawPolygon(dst, d.Corners[:], opts.OutlineColor)
		for _, c := range d.Corners {
			drawCross(dst, c, opts.CornerColor, 3)
		}
		drawCross(dst, d.Center, opts.CenterColor, 4)
	}
	return dst
}

func drawPolygon(dst *image.RGBA, pts []geom.Point, col color.Color) {
	n := len(pts)
	for i := range n {
		drawLine(dst, pts[i], pts[(i+1)%n], col)
	}
}

// drawLine rasterizes a line via Bresenham's algorithm.
func drawLine(dst *image.RGBA, a, b geom.Point, col color.Color) {
	x0, y0 := int(a.X), int(a.Y)
	x1, y1 := int(b.X), int(b.Y)
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 >= x1 {
		sx = -1
	}
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setPixel(dst, x0, y0, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawCross(dst *image.RGBA, p geom.Point, col color.Color, radius int) {
	cx, cy := int(p.X), int(p.Y)
	for d := -radius; d <= radius; d++ {
		setPixel(dst, cx+d, cy, col)
		setPixel(dst, cx, cy+d, col)
	}
}

func setPixel(dst *image.RGBA, x, y int, col color.Color) {
	if x < 0 || y < 0 || x >= dst.Rect.Dx() || y >= dst.Rect.Dy() {
		return
	}
	dst.Set(x, y, col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
