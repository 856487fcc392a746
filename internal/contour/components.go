// Package contour implements the boundary-tracing segmentation variant:
// label connected dark regions, trace each region's outer boundary with
// Moore-neighbourhood tracing, simplify the boundary polyline, and reduce
// it to a 4-corner quad candidate.
package contour

import (
	"container/list"

	"github.com/aprilgo/apriltag/internal/mempool"
	"github.com/aprilgo/apriltag/internal/threshold"
)

// component holds the bounding box of one labeled dark region, enough to
// scope the boundary search.
type component struct {
	minX, minY, maxX, maxY int
	count                  int
}

// labelDarkComponents finds 4-connected components of DARK-labeled pixels
// in th, returning per-pixel labels (1-based, 0 = not part of any dark
// component) and per-component bounding-box stats.
func labelDarkComponents(th *threshold.Result) ([]int, []component) {
	w, h := th.Width, th.Height
	labels := mempool.GetInt(w * h)
	visited := make([]bool, w*h)
	var comps []component
	label := 0

	idx := func(x, y int) int { return y*w + x }
	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for y := range h {
		for x := range w {
			i := idx(x, y)
			if visited[i] || th.LabelAt(x, y) != threshold.Dark {
				continue
			}
			label++
			c := component{minX: x, minY: x, maxX: x, maxY: y}
			c.minX, c.maxX = x, x
			c.minY, c.maxY = y, y

			q := list.New()
			q.PushBack(i)
			visited[i] = true
			labels[i] = label

			for q.Len() > 0 {
				e := q.Front()
				q.Remove(e)
				ci, _ := e.Value.(int)
				cx, cy := ci%w, ci/w
				c.count++
				if cx < c.minX {
					c.minX = cx
				}
				if cx > c.maxX {
					c.maxX = cx
				}
				if cy < c.minY {
					c.minY = cy
				}
				if cy > c.maxY {
					c.maxY = cy
				}
				for _, d := range dirs {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := idx(nx, ny)
					if visited[ni] || th.LabelAt(nx, ny) != threshold.Dark {
						continue
					}
					visited[ni] = true
					labels[ni] = label
					q.PushBack(ni)
				}
			}
			comps = append(comps, c)
		}
	}
	return labels, comps
}
