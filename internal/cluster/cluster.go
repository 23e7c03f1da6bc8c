// Package implementing distance threshold clustering of tree leaves
package cluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	gr "github.com/jsdoublel/phyclust/internal/graphs"
)

const (
	DefaultTreeDist = 1
	DefaultCutoff   = 27
)

var (
	ErrNotPartition = errors.New("clusters do not partition leaves")
	ErrTreeDist     = errors.New("tree distance must be positive and finite")
	ErrCutoff       = errors.New("cutoff must be a number")
)

// Clustering parameters
type Options struct {
	TreeDist float64 `yaml:"tree_dist"` // divisor applied to accumulated edge lengths
	Cutoff   float64 `yaml:"cutoff"`    // scaled distance that must be exceeded to start a new cluster
}

func DefaultOptions() Options {
	return Options{TreeDist: DefaultTreeDist, Cutoff: DefaultCutoff}
}

func (opts Options) Validate() error {
	if !(opts.TreeDist > 0) || math.IsInf(opts.TreeDist, 1) {
		return fmt.Errorf("%w (got %g)", ErrTreeDist, opts.TreeDist)
	}
	if math.IsNaN(opts.Cutoff) {
		return fmt.Errorf("%w (got %g)", ErrCutoff, opts.Cutoff)
	}
	return nil
}

// Clusters of leaves with inter- and intra-cluster distances. Inter[i] is the
// scaled distance at which cluster i+1 was split off from cluster i, Intra[i]
// is the mean scaled edge length of the leaves in cluster i.
type Result struct {
	Clusters [][]*gr.Node
	Inter    []float64
	Intra    []float64
	IDs      map[*gr.Node]int // leaf -> 1-based cluster id
}

type frame struct {
	node *gr.Node
	next int // index of next child to visit
}

type clusterer struct {
	opts  Options
	dist  float64 // distance walked since the last assigned leaf
	res   *Result
	stack []frame
}

// Partitions the leaves below root into clusters. Leaves are visited depth
// first in child order, and the distance walked between consecutive leaves
// decides whether a new cluster starts. Internal edges are walked twice, once
// going down into the subtree and once coming back out of it.
func Cluster(root *gr.Node, opts Options) *Result {
	res := &Result{
		Clusters: make([][]*gr.Node, 0),
		Inter:    make([]float64, 0),
		Intra:    make([]float64, 0),
		IDs:      make(map[*gr.Node]int),
	}
	if root.Tip() {
		return res
	}
	res.Clusters = append(res.Clusters, make([]*gr.Node, 0))
	res.Intra = append(res.Intra, 0)
	c := &clusterer{opts: opts, res: res}
	c.visit(root)
	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		if top.next < top.node.NumChildren() {
			child := top.node.Children()[top.next]
			top.next++
			c.visit(child)
			continue
		}
		c.dist += top.node.Length()
		c.stack = c.stack[:len(c.stack)-1]
	}
	last := len(res.Clusters) - 1
	res.Intra[last] /= float64(len(res.Clusters[last]))
	return res
}

func (c *clusterer) visit(n *gr.Node) {
	c.dist += n.Length()
	if !n.Tip() {
		c.stack = append(c.stack, frame{node: n})
		return
	}
	res := c.res
	scaled := c.dist / c.opts.TreeDist
	cur := len(res.Clusters) - 1
	if scaled > c.opts.Cutoff && len(res.Clusters[cur]) > 0 {
		res.Intra[cur] /= float64(len(res.Clusters[cur]))
		res.Inter = append(res.Inter, scaled)
		res.Clusters = append(res.Clusters, make([]*gr.Node, 0))
		res.Intra = append(res.Intra, 0)
		cur++
	}
	res.Clusters[cur] = append(res.Clusters[cur], n)
	res.IDs[n] = cur + 1
	c.dist = n.Length()
	res.Intra[cur] += c.dist / c.opts.TreeDist
}

func (r *Result) NumClusters() int { return len(r.Clusters) }

// Checks that the clusters hold every leaf of t exactly once, in tip order.
// Always true for a Result returned by Cluster(t.Root(), ...).
func (r *Result) Verify(t *gr.Tree) error {
	if t.Degenerate() {
		if len(r.Clusters) != 0 {
			return fmt.Errorf("%w, degenerate tree has %d clusters", ErrNotPartition, len(r.Clusters))
		}
		return nil
	}
	seen := bitset.New(uint(t.NumTips()))
	next := 0
	for i, cl := range r.Clusters {
		if len(cl) == 0 {
			return fmt.Errorf("%w, cluster %d is empty", ErrNotPartition, i+1)
		}
		for _, n := range cl {
			idx, ok := t.TipIndex(n)
			switch {
			case !ok:
				return fmt.Errorf("%w, %s is not a leaf of the tree", ErrNotPartition, n.Label())
			case seen.Test(uint(idx)):
				return fmt.Errorf("%w, leaf %s is in more than one cluster", ErrNotPartition, n.Label())
			case idx != next:
				return fmt.Errorf("%w, leaf %s is out of order", ErrNotPartition, n.Label())
			}
			seen.Set(uint(idx))
			next++
		}
	}
	if seen.Count() != uint(t.NumTips()) {
		return fmt.Errorf("%w, %d of %d leaves clustered", ErrNotPartition, seen.Count(), t.NumTips())
	}
	if len(r.Inter) != len(r.Clusters)-1 || len(r.Intra) != len(r.Clusters) {
		return fmt.Errorf("%w, %d clusters with %d inter and %d intra distances",
			ErrNotPartition, len(r.Clusters), len(r.Inter), len(r.Intra))
	}
	return nil
}
