/*
phyclust clusters the leaves of a phylogenetic tree by the distance walked
between neighboring leaves, and compares a simulated tree against a reference
tree using percentage errors over clusters and node distributions.

usage: phyclust [ -f <format> | -c <config> | -n <int> | -p | -h | -v ] <command> <args>

commands:

	cluster		clusters leaves of a tree
	compare		compares simulated tree against reference tree

positional arguments:

	cluster <tree> [tree_dist] [cutoff]
	compare <country> <ref_tree> <sim_tree> [output_dir]

flags:

	-c config
	  	yaml config file
	-f format
	  	tree file format [ newick | nexus ] (default "newick")
	-h	prints this message and exits
	-n int
	  	number of parallel processes
	-p	save png plots next to the data files (compare)
	-v	prints version number and exits

examples:

	  cluster command example:
		phyclust cluster egypt.nwk 1841 27 > clusters.txt 2> log.txt

	  compare command example:
		phyclust compare egypt egypt.nwk sim.nwk plots/ >> errors.txt 2> log.txt
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/jsdoublel/phyclust/internal/cluster"
	"github.com/jsdoublel/phyclust/internal/compare"
	"github.com/jsdoublel/phyclust/internal/metrics"
	pr "github.com/jsdoublel/phyclust/internal/prep"
)

const (
	Version    = "v0.1.0"
	ErrMessage = "phyclust encountered an error ::"

	Cluster Command = iota
	Compare
)

type Command int

var (
	ErrUsage = errors.New("invalid arguments")
	errDone  = errors.New("nothing left to run")
)

var parseCommand = map[string]Command{
	"cluster": Cluster,
	"compare": Compare,
}

type args struct {
	command   Command   // cluster or compare
	format    pr.Format // tree file format
	config    pr.Config // parameters
	treeFiles []string  // cluster: one tree; compare: reference then simulated
	country   string    // prefix for compare output files
	outputDir string    // compare output directory
	plot      bool      // save plots with compare output
	nprocs    int       // number of parallel processes
}

func setNProcs(nprocs int) int {
	maxProcs := runtime.GOMAXPROCS(0)
	switch {
	case nprocs > maxProcs:
		log.Printf("%d is greater than available processes (%d); limit set to %d\n", nprocs, maxProcs, maxProcs)
		return maxProcs
	case nprocs <= 0:
		log.Printf("number of processes not set; defaulting to %d processes\n", maxProcs)
		return maxProcs
	default:
		return nprocs
	}
}

// usage printed for -h and on argument errors
func usage(fs *flag.FlagSet) func() {
	return func() {
		w := fs.Output()
		fmt.Fprint(w,
			"usage: phyclust [ -f <format> | -c <config> | -n <int> | -p | -h | -v ] <command> <args>\n",
			"\n",
			"commands:\n\n",
			"  cluster\tclusters leaves of a tree\n",
			"  compare\tcompares simulated tree against reference tree\n",
			"\n",
			"positional arguments:\n\n",
			"  cluster <tree> [tree_dist] [cutoff]\n",
			"  compare <country> <ref_tree> <sim_tree> [output_dir]\n",
			"\n",
			"flags:\n\n",
		)
		fs.PrintDefaults()
		fmt.Fprint(w,
			"\n",
			"examples:\n\n",
			"  cluster command example:\n",
			"\tphyclust cluster egypt.nwk 1841 27 > clusters.txt 2> log.txt\n\n",
			"  compare command example:\n",
			"\tphyclust compare egypt egypt.nwk sim.nwk plots/ >> errors.txt 2> log.txt\n",
		)
	}
}

// Parses the command line (without the program name). Usage and argument
// errors go to stderr, the version to stdout. Returns errDone after -h or -v,
// and an error wrapping ErrUsage if the arguments are invalid.
func parseArgs(argv []string, stdout, stderr io.Writer) (args, error) {
	fs := flag.NewFlagSet("phyclust", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs)
	format := pr.Newick
	fs.Var(&format, "f", "tree file `format` [ newick | nexus ] (default \"newick\")")
	configFile := fs.String("c", "", "yaml `config` file")
	help := fs.Bool("h", false, "prints this message and exits")
	ver := fs.Bool("v", false, "prints version number and exits")
	nprocs := fs.Int("n", 0, "number of parallel processes")
	plot := fs.Bool("p", false, "save png plots next to the data files (compare)")
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return args{}, errDone
		}
		return args{}, fmt.Errorf("%w: %s", ErrUsage, err)
	}
	if *help {
		fs.Usage()
		return args{}, errDone
	}
	if *ver {
		fmt.Fprintf(stdout, "phyclust version %s\n", Version)
		return args{}, errDone
	}
	if fs.NArg() < 1 {
		return args{}, parserError(fs, "a command is required: either \"cluster\" or \"compare\"")
	}
	cmd, ok := parseCommand[fs.Arg(0)]
	if !ok {
		return args{}, parserError(fs, fmt.Sprintf("\"%s\" is not a valid command: either \"cluster\" or \"compare\" required", fs.Arg(0)))
	}
	cfg, err := pr.LoadConfig(*configFile)
	if err != nil {
		return args{}, parserError(fs, err.Error())
	}
	a := args{command: cmd, format: format, config: cfg, plot: *plot, nprocs: setNProcs(*nprocs)}
	pos := fs.Args()[1:]
	switch cmd {
	case Cluster:
		if len(pos) < 1 || len(pos) > 3 {
			return args{}, parserError(fs, "cluster requires a tree file, optionally followed by tree distance and cutoff")
		}
		a.treeFiles = pos[:1]
		if len(pos) > 1 {
			if a.config.Cluster.TreeDist, err = parseFloatArg("tree distance", pos[1]); err != nil {
				return args{}, parserError(fs, err.Error())
			}
		}
		if len(pos) > 2 {
			if a.config.Cluster.Cutoff, err = parseFloatArg("cutoff", pos[2]); err != nil {
				return args{}, parserError(fs, err.Error())
			}
		}
		if err := a.config.Cluster.Validate(); err != nil {
			return args{}, parserError(fs, err.Error())
		}
	case Compare:
		if len(pos) < 3 || len(pos) > 4 {
			return args{}, parserError(fs, "compare requires a country, a reference tree file, and a simulated tree file, optionally followed by an output directory")
		}
		a.country = pos[0]
		a.treeFiles = pos[1:3]
		if len(pos) > 3 {
			a.outputDir = pos[3]
		}
	}
	return a, nil
}

func parseFloatArg(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s \"%s\" is not a number", name, s)
	}
	return f, nil
}

// prints message and usage; main exits with status code 1
func parserError(fs *flag.FlagSet, message string) error {
	fmt.Fprintln(fs.Output(), message)
	fs.Usage()
	return fmt.Errorf("%w: %s", ErrUsage, message)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("phyclust version %s", Version)
	args, err := parseArgs(os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case errors.Is(err, errDone):
		os.Exit(0)
	case err != nil:
		os.Exit(1)
	}
	trees, err := pr.ReadTreeFiles(args.format, args.nprocs, args.treeFiles...)
	if err != nil {
		log.Fatalf("%s %s\n", ErrMessage, err)
	}
	switch args.command {
	case Cluster:
		log.Println("running cluster...")
		res := cluster.Cluster(trees[0].Root(), args.config.Cluster)
		if err := res.Verify(trees[0]); err != nil {
			log.Fatalf("%s %s\n", ErrMessage, err)
		}
		fmt.Println("Cluster count      : ", res.NumClusters())
		fmt.Println("Inter-Cluster dists: ", res.Inter)
		fmt.Println("Avg Inter-cluster  : ", metrics.Mean(res.Inter))
		fmt.Println("Intra-cluster dists: ", res.Intra)
		fmt.Println("Avg Intra-cluster  : ", metrics.Mean(res.Intra))
	case Compare:
		log.Println("running compare...")
		opts := compare.Options{
			Config:    args.config,
			OutputDir: args.outputDir,
			Prefix:    args.country,
			Plot:      args.plot,
			NProcs:    args.nprocs,
		}
		report, err := compare.Compare(trees[0], trees[1], opts)
		if err != nil {
			log.Fatalf("%s %s\n", ErrMessage, err)
		}
		fmt.Println(report.Line(args.country))
	default:
		panic(fmt.Sprintf("invalid command (%d)", args.command))
	}
}
