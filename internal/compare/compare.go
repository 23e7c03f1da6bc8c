// Package comparing a reference tree against a simulated tree
package compare

import (
	"context"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jsdoublel/phyclust/internal/cluster"
	gr "github.com/jsdoublel/phyclust/internal/graphs"
	"github.com/jsdoublel/phyclust/internal/metrics"
	pr "github.com/jsdoublel/phyclust/internal/prep"
)

// Error reported for a metric when either tree has nothing below its root
const DegenerateError = 100

// Bins whose percentages are both at or below this are left out of the child
// distribution error (unless they are equal)
const childNoiseFloor = 1

type Options struct {
	pr.Config
	OutputDir string // directory for plot data; empty for none
	Prefix    string // prefix of output files
	Plot      bool   // also save png plots
	NProcs    int    // trees analysed at the same time
}

func DefaultOptions() Options {
	return Options{Config: pr.DefaultConfig(), NProcs: 1}
}

type Report struct {
	RefClusters  int
	SimClusters  int
	RefInterMean float64 // mean inter-cluster distance of the reference tree
	SimInterMean float64
	InterError   float64
	IntraError   float64
	ChildError   float64
	LengthError  float64 // leaf edge lengths
	DepthError   float64

	RefChildren, SimChildren metrics.Distribution // nil if degenerate
	RefDepths, SimDepths     metrics.Distribution // nil if degenerate
	RefLengths, SimLengths   []float64            // nil if degenerate
}

// everything computed from a single tree
type analysis struct {
	clusters *cluster.Result
	children metrics.Distribution
	depths   metrics.Distribution
	lengths  []float64
}

func analyze(t *gr.Tree, opts Options) *analysis {
	a := &analysis{clusters: cluster.Cluster(t.Root(), opts.Cluster)}
	if !t.Degenerate() {
		a.children = metrics.ChildDistribution(t, opts.MaxChildren)
		a.depths = metrics.NodeDepthDistribution(t, opts.MaxDepth)
		a.lengths = metrics.LeafEdgeLengths(t)
	}
	return a
}

// Compares the reference and simulated trees. Files are written to
// opts.OutputDir when it is set; errors come from writing them.
func Compare(ref, sim *gr.Tree, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	var refA, simA *analysis
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(max(opts.NProcs, 1))
	g.Go(func() error {
		refA = analyze(ref, opts)
		return nil
	})
	g.Go(func() error {
		simA = analyze(sim, opts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r := &Report{}
	r.compareClusters(refA.clusters, simA.clusters)
	degenerate := ref.Degenerate() || sim.Degenerate()
	if degenerate {
		log.Println("reference or simulated tree is empty; reporting maximum error for distributions")
		r.ChildError, r.LengthError, r.DepthError = DegenerateError, DegenerateError, DegenerateError
	} else {
		r.RefChildren, r.SimChildren = refA.children, simA.children
		r.RefDepths, r.SimDepths = refA.depths, simA.depths
		r.RefLengths, r.SimLengths = refA.lengths, simA.lengths
		r.ChildError = childError(refA.children, simA.children)
		r.LengthError = metrics.PercentError(metrics.Mean(refA.lengths), metrics.Mean(simA.lengths))
		r.DepthError = depthError(refA.depths, simA.depths)
	}
	if opts.OutputDir != "" && !degenerate {
		if err := r.write(opts); err != nil {
			return r, err
		}
	}
	return r, nil
}

func (r *Report) compareClusters(ref, sim *cluster.Result) {
	r.RefClusters, r.SimClusters = ref.NumClusters(), sim.NumClusters()
	r.RefInterMean, r.SimInterMean = metrics.Mean(ref.Inter), metrics.Mean(sim.Inter)
	r.InterError = metrics.PercentError(r.RefInterMean, r.SimInterMean)
	r.IntraError = metrics.PercentError(metrics.Mean(ref.Intra), metrics.Mean(sim.Intra))
}

// Mean error over bins that are equal or where either tree has more than 1% of
// its nodes; near empty bins give unstable percentage errors.
func childError(ref, sim metrics.Distribution) float64 {
	errs := make([]float64, 0, len(ref))
	for k := range ref {
		if ref[k] == sim[k] || ref[k] > childNoiseFloor || sim[k] > childNoiseFloor {
			errs = append(errs, metrics.PercentError(ref[k], sim[k]))
		}
	}
	return metrics.Mean(errs)
}

func depthError(ref, sim metrics.Distribution) float64 {
	errs := make([]float64, len(ref))
	for k := range ref {
		errs[k] = metrics.PercentError(ref[k], sim[k])
	}
	return metrics.Mean(errs)
}

// Writes <prefix>_children.dat, <prefix>_distances.dat and <prefix>_depth.dat
// (and png plots of the distributions if requested)
func (r *Report) write(opts Options) error {
	path := func(suffix string) string {
		return filepath.Join(opts.OutputDir, opts.Prefix+suffix)
	}
	if err := pr.WriteDistributionFile(path("_children.dat"), "Children", r.SimChildren, r.RefChildren); err != nil {
		return err
	}
	if err := pr.WriteDistancesFile(path("_distances.dat"), r.SimLengths, r.RefLengths); err != nil {
		return err
	}
	if err := pr.WriteDistributionFile(path("_depth.dat"), "Depth", r.SimDepths, r.RefDepths); err != nil {
		return err
	}
	if !opts.Plot {
		return nil
	}
	if err := pr.WriteDistributionPlot(path("_children.png"), "Children", r.SimChildren, r.RefChildren); err != nil {
		return err
	}
	return pr.WriteDistributionPlot(path("_depth.png"), "Depth", r.SimDepths, r.RefDepths)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Single line summary, with every value preceded by its label
func (r *Report) Line(prefix string) string {
	fields := []string{
		prefix,
		"ref-clusters", strconv.Itoa(r.RefClusters),
		"sim-clusters", strconv.Itoa(r.SimClusters),
		"ref-ICD", formatFloat(r.RefInterMean),
		"sim-ICD", formatFloat(r.SimInterMean),
		"inter-clust-dists", formatFloat(r.InterError),
		"intra-clust-dists", formatFloat(r.IntraError),
		"node_size", formatFloat(r.ChildError),
		"distances", formatFloat(r.LengthError),
		"depth", formatFloat(r.DepthError),
	}
	return strings.Join(fields, " ")
}
