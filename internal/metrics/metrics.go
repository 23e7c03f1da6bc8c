// Package implementing per-tree distributions and the error measures used to
// compare them
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	gr "github.com/jsdoublel/phyclust/internal/graphs"
)

const (
	DefaultMaxChildren = 6
	DefaultMaxDepth    = 11
)

// Percentage of nodes per bin (index = bin). Nodes whose bin is at or beyond
// len(Distribution) count towards the total but are not reported.
type Distribution []float64

// Percentage of non-root nodes with 0, 1, ..., maxBin-1 children
func ChildDistribution(t *gr.Tree, maxBin int) Distribution {
	counts := make([]uint64, maxBin)
	var total uint64
	t.Descendants(func(n *gr.Node) {
		total++
		if k := n.NumChildren(); k < maxBin {
			counts[k]++
		}
	})
	return toPercent(counts, total)
}

// Percentage of non-root nodes per depth value, where the depth of a node is
// one more than the largest depth among its children (so leaves are 1). Only
// the tree root is 0. This is the height of the subtree under the node and
// not its distance from the root; it is kept that way so results line up with
// earlier runs.
func NodeDepthDistribution(t *gr.Tree, maxBin int) Distribution {
	depths := NodeDepths(t)
	counts := make([]uint64, maxBin)
	var total uint64
	t.Descendants(func(n *gr.Node) {
		total++
		if d := depths[n]; d < maxBin {
			counts[d]++
		}
	})
	return toPercent(counts, total)
}

// Depth value of every node as used by NodeDepthDistribution
func NodeDepths(t *gr.Tree) map[*gr.Node]int {
	depths := make(map[*gr.Node]int, t.NumNodes())
	t.PostOrder(func(n *gr.Node) {
		if n == t.Root() {
			depths[n] = 0
			return
		}
		d := 0
		for _, c := range n.Children() {
			d = max(d, depths[c])
		}
		depths[n] = d + 1
	})
	return depths
}

// Edge length between each leaf and its parent, in tip order
func LeafEdgeLengths(t *gr.Tree) []float64 {
	lengths := make([]float64, t.NumTips())
	for i, n := range t.Tips() {
		lengths[i] = n.Length()
	}
	return lengths
}

func toPercent(counts []uint64, total uint64) Distribution {
	if total == 0 {
		total = 1
	}
	dist := make(Distribution, len(counts))
	for i, c := range counts {
		dist[i] = float64(c) / float64(total) * 100
	}
	return dist
}

// Arithmetic mean; 0 for an empty slice
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs) / float64(len(xs))
}

// Symmetric absolute percentage error between a theoretical and an observed
// value. Defined as 0 when both are 0.
func PercentError(theoretical, observed float64) float64 {
	if theoretical == 0 && observed == 0 {
		return 0
	}
	return math.Abs(theoretical-observed) / math.Max(theoretical, observed) * 100
}
