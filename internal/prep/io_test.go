package prep

import (
	"errors"
	"os"
	"reflect"
	"testing"

	gr "github.com/jsdoublel/phyclust/internal/graphs"
)

func tipLabels(t *gr.Tree) []string {
	labels := make([]string, 0, t.NumTips())
	for _, n := range t.Tips() {
		labels = append(labels, n.Label())
	}
	return labels
}

func TestReadTreeFile(t *testing.T) {
	testCases := []struct {
		name        string
		treeFile    string
		format      string
		taxa        []string
		numNodes    int
		expectedErr error
	}{
		{
			name:        "basic",
			treeFile:    "testdata/tree.nwk",
			format:      "newick",
			taxa:        []string{"A", "B", "C", "D", "E", "F"},
			numNodes:    9,
			expectedErr: nil,
		},
		{
			name:        "cherry",
			treeFile:    "testdata/cherry.nwk",
			format:      "newick",
			taxa:        []string{"A", "B"},
			numNodes:    3,
			expectedErr: nil,
		},
		{
			name:        "single node",
			treeFile:    "testdata/single.nwk",
			format:      "newick",
			taxa:        []string{"A"},
			numNodes:    1,
			expectedErr: nil,
		},
		{
			name:        "single node with bad length",
			treeFile:    "testdata/badsingle.nwk",
			format:      "newick",
			expectedErr: ErrInvalidFormat,
		},
		{
			name:        "more than one tree",
			treeFile:    "testdata/multi.nwk",
			format:      "newick",
			expectedErr: ErrInvalidFile,
		},
		{
			name:        "bad tree",
			treeFile:    "testdata/badtree.nwk",
			format:      "newick",
			expectedErr: ErrInvalidFormat,
		},
		{
			name:        "empty tree file",
			treeFile:    "testdata/empty.nwk",
			format:      "newick",
			expectedErr: ErrInvalidFile,
		},
		{
			name:        "missing file",
			treeFile:    "testdata/does-not-exist.nwk",
			format:      "newick",
			expectedErr: os.ErrNotExist,
		},
		{
			name:        "basic nexus",
			treeFile:    "testdata/tree.nex",
			format:      "nexus",
			taxa:        []string{"A", "B", "C"},
			numNodes:    5,
			expectedErr: nil,
		},
		{
			name:        "nexus with two trees",
			treeFile:    "testdata/multi.nex",
			format:      "nexus",
			expectedErr: ErrInvalidFile,
		},
		{
			name:        "missing nexus file",
			treeFile:    "testdata/does-not-exist.nex",
			format:      "nexus",
			expectedErr: os.ErrNotExist,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			tre, err := ReadTreeFile(test.treeFile, ParseFormat[test.format])
			switch {
			case !errors.Is(err, test.expectedErr):
				t.Errorf("Failed with unexpected error %+v", err)
			case errors.Is(err, test.expectedErr) && err != nil:
				t.Logf("%s", err)
			case test.expectedErr == nil:
				if taxa := tipLabels(tre); !reflect.DeepEqual(taxa, test.taxa) {
					t.Errorf("Taxa of tree not equal to expected (%v != %v)", taxa, test.taxa)
				}
				if tre.NumNodes() != test.numNodes {
					t.Errorf("Wrong number of nodes (%d != %d)", tre.NumNodes(), test.numNodes)
				}
			}
		})
	}
}

func TestParseSingleNode(t *testing.T) {
	testCases := []struct {
		name   string
		nwk    string
		label  string
		length float64
		valid  bool
	}{
		{name: "label and length", nwk: "A:3;", label: "A", length: 3, valid: true},
		{name: "label only", nwk: "A;", label: "A", valid: true},
		{name: "no label", nwk: ";", valid: true},
		{name: "spaces", nwk: " A : 2.5 ;", label: "A", length: 2.5, valid: true},
		{name: "no semicolon", nwk: "A:3"},
		{name: "two leaves", nwk: "A,B;"},
		{name: "unbalanced", nwk: "A:1,B:2);"},
		{name: "bad length", nwk: "A:x;"},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			tre, err := parseSingleNode(test.nwk)
			switch {
			case !test.valid && err == nil:
				t.Errorf("%q should not parse", test.nwk)
			case !test.valid:
				t.Logf("%s", err)
			case err != nil:
				t.Errorf("unexpected error %s", err)
			default:
				if !tre.Degenerate() {
					t.Error("single node tree should be degenerate")
				}
				if r := tre.Root(); r.Label() != test.label || r.Length() != test.length {
					t.Errorf("root %q:%f != %q:%f", r.Label(), r.Length(), test.label, test.length)
				}
			}
		})
	}
}

func TestReadTreeFiles(t *testing.T) {
	trees, err := ReadTreeFiles(Newick, 2, "testdata/tree.nwk", "testdata/cherry.nwk", "testdata/tree.nwk")
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	expected := []int{6, 2, 6}
	for i, tre := range trees {
		if tre.NumTips() != expected[i] {
			t.Errorf("tree %d has %d tips, expected %d", i, tre.NumTips(), expected[i])
		}
	}
	trees, err = ReadTreeFiles(Newick, 2, "testdata/cherry.nwk", "testdata/single.nwk")
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if trees[0].Degenerate() || !trees[1].Degenerate() {
		t.Error("only the single node tree should be degenerate")
	}
	if _, err := ReadTreeFiles(Newick, 0, "testdata/cherry.nwk", "testdata/badtree.nwk"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected %s, got %v", ErrInvalidFormat, err)
	}
}

func TestFormat(t *testing.T) {
	var f Format
	if err := f.Set("nexus"); err != nil || f != Nexus {
		t.Errorf("could not set nexus format: %v", err)
	}
	if f.String() != "nexus" {
		t.Errorf("format string %s != nexus", f.String())
	}
	if err := f.Set("phylip"); err == nil {
		t.Error("phylip should not be a valid format")
	}
	if f != Nexus {
		t.Error("invalid format should not change value")
	}
}
