// Package unionfind implements a disjoint-set structure over image
// pixels, used by the gradient-clustering segmentation variant. Per the
// concurrency design, each horizontal stripe owns its own UnionFind and
// stripes are merged in a single-threaded combine phase rather than
// sharing one structure across goroutines.
package unionfind

import "github.com/aprilgo/apriltag/internal/mempool"

// UnionFind is a disjoint-set over n elements (pixel indices), using
// union-by-size and path compression.
type UnionFind struct {
	parent []int
	size   []int
}

// New allocates a UnionFind over n elements, each its own singleton set.
func New(n int) *UnionFind {
	uf := &UnionFind{
		parent: mempool.GetInt(n),
		size:   mempool.GetInt(n),
	}
	for i := range n {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Release returns the backing buffers to the shared pool.
func (uf *UnionFind) Release() {
	mempool.PutInt(uf.parent)
	mempool.PutInt(uf.size)
	uf.parent = nil
	uf.size = nil
}

// Find returns the representative (root) of x's set, compressing the
// path from x to the root.
func (uf *UnionFind) Find(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		uf.parent[x], x = root, uf.parent[x]
	}
	return root
}

// Union merges the sets containing a and b, attaching the smaller set's
// root under the larger's. Returns the resulting root.
func (uf *UnionFind) Union(a, b int) int {
	ra, rb := uf.Find(a), uf.Find(b)
	if ra == rb {
		return ra
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	return ra
}

// Size returns the size of the set containing x.
func (uf *UnionFind) Size(x int) int {
	return uf.size[uf.Find(x)]
}

// Len returns the number of elements the structure was created over.
func (uf *UnionFind) Len() int { return len(uf.parent) }
