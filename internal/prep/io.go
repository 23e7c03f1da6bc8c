// Package handling phyclust's inputs and outputs: tree files, the config file,
// and the tables and plots written for the compare command
package prep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/evolbioinfo/gotree/io/newick"
	"github.com/evolbioinfo/gotree/io/nexus"
	"github.com/evolbioinfo/gotree/tree"
	"golang.org/x/sync/errgroup"

	gr "github.com/jsdoublel/phyclust/internal/graphs"
)

var (
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidFormat = errors.New("invalid format")
	ErrWritingFile   = errors.New("error writing file")
	ErrTypeOutRange  = errors.New("out of type range")
)

type Format int

const (
	Newick Format = iota
	Nexus
)

var ParseFormat = map[string]Format{
	"newick": Newick,
	"nexus":  Nexus,
}

func (f *Format) Set(s string) error {
	if format, ok := ParseFormat[s]; ok {
		*f = format
		return nil
	}
	return fmt.Errorf("\"%s\" is not a valid tree file format", s)
}

func (f Format) String() string {
	for s, fr := range ParseFormat {
		if fr == f {
			return s
		}
	}
	panic(fmt.Sprintf("format (%d) does not exist", f))
}

// Reads and converts the single tree in treeFile. Returns an error if the file
// cannot be read, does not hold exactly one tree, or the tree cannot be parsed.
func ReadTreeFile(treeFile string, format Format) (*gr.Tree, error) {
	defer quietGotree()()
	return readTreeFile(treeFile, format)
}

// Reads several tree files at once (at most nprocs at a time); trees are
// returned in the order of treeFiles.
func ReadTreeFiles(format Format, nprocs int, treeFiles ...string) ([]*gr.Tree, error) {
	// held until every worker is done, so the workers' own restores are no-ops
	defer quietGotree()()
	trees := make([]*gr.Tree, len(treeFiles))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(max(nprocs, 1))
	for i, f := range treeFiles {
		g.Go(func() error {
			tre, err := ReadTreeFile(f, format)
			trees[i] = tre
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

// gotree can be noisy; silences the standard logger and returns a function
// restoring it
func quietGotree() func() {
	flags := log.Flags()
	lout := log.Writer()
	log.SetOutput(io.Discard)
	return func() {
		log.SetOutput(lout)
		log.SetFlags(flags)
	}
}

func readTreeFile(treeFile string, format Format) (*gr.Tree, error) {
	switch format {
	case Newick:
		return readNewick(treeFile)
	case Nexus:
		tre, err := readNexus(treeFile)
		if err != nil {
			return nil, err
		}
		return gr.FromGotree(tre)
	default:
		return nil, fmt.Errorf("%w, not a valid file format", ErrInvalidFile)
	}
}

func readNewick(treeFile string) (*gr.Tree, error) {
	treBytes, err := os.ReadFile(treeFile)
	if err != nil {
		return nil, fmt.Errorf("error reading tree file: %w", err)
	}
	treBytes = bytes.TrimSpace(treBytes)
	if bytes.Count(treBytes, []byte{byte('\n')}) != 0 || len(treBytes) == 0 {
		return nil, fmt.Errorf("%w, there should only be exactly one newick tree in tree file %s",
			ErrInvalidFile, treeFile)
	}
	if !bytes.ContainsRune(treBytes, '(') {
		tre, err := parseSingleNode(string(treBytes))
		if err != nil {
			return nil, fmt.Errorf("%w, error parsing tree newick string from %s: %s",
				ErrInvalidFormat, treeFile, err.Error())
		}
		return tre, nil
	}
	tre, err := newick.NewParser(bytes.NewReader(treBytes)).Parse()
	if err != nil {
		return nil, fmt.Errorf("%w, error parsing tree newick string from %s: %s",
			ErrInvalidFormat, treeFile, err.Error())
	}
	return gr.FromGotree(tre)
}

// Parses a newick tree that is only a root ("A;", "A:3;" or ";"), which gotree
// does not accept. The result is a degenerate tree.
func parseSingleNode(nwk string) (*gr.Tree, error) {
	body, ok := strings.CutSuffix(nwk, ";")
	if !ok {
		return nil, errors.New("tree does not end with ';'")
	}
	if i := strings.IndexAny(body, "(),;[]"); i >= 0 {
		return nil, fmt.Errorf("unexpected %q in single node tree", body[i])
	}
	label, lenStr, hasLen := strings.Cut(strings.TrimSpace(body), ":")
	label = strings.TrimSpace(label)
	length := 0.0
	if hasLen {
		var err error
		if length, err = strconv.ParseFloat(strings.TrimSpace(lenStr), 64); err != nil {
			return nil, fmt.Errorf("bad length %q", lenStr)
		}
	}
	return gr.NewTree(gr.NewNode(label, length)), nil
}

func readNexus(treeFile string) (*tree.Tree, error) {
	file, err := os.Open(treeFile)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", treeFile, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", treeFile, err))
		}
	}()
	nex, err := nexus.NewParser(file).Parse()
	if err != nil {
		return nil, fmt.Errorf("%w, error reading nexus file %s: %s",
			ErrInvalidFormat, treeFile, err.Error())
	}
	trees := make([]*tree.Tree, 0)
	nex.IterateTrees(func(s string, t *tree.Tree) {
		trees = append(trees, t)
	})
	if len(trees) != 1 {
		return nil, fmt.Errorf("%w, there should only be exactly one tree in nexus file %s (found %d)",
			ErrInvalidFile, treeFile, len(trees))
	}
	return trees[0], nil
}
