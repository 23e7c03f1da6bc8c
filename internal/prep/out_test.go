package prep

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsdoublel/phyclust/internal/metrics"
)

func TestWriteDistribution(t *testing.T) {
	var buf bytes.Buffer
	sim := metrics.Distribution{75, 0, 12.5}
	ref := metrics.Distribution{50, 25, 25}
	if err := WriteDistribution(&buf, "Children", sim, ref); err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	expected := "Children Simulation EpiFlu\n" +
		"0 75 50\n" +
		"1 0 25\n" +
		"2 12.5 25\n"
	if buf.String() != expected {
		t.Errorf("output\n%s\n!= expected\n%s", buf.String(), expected)
	}
}

func TestWriteDistances(t *testing.T) {
	testCases := []struct {
		name     string
		sim      []float64
		ref      []float64
		expected string
	}{
		{
			name:     "equal length",
			sim:      []float64{1, 2.5},
			ref:      []float64{3, 4},
			expected: "Simulation EpiFlu\n1 3\n2.5 4\n",
		},
		{
			name:     "reference longer",
			sim:      []float64{1},
			ref:      []float64{3, 4, 0.25},
			expected: "Simulation EpiFlu\n1 3\n 4\n 0.25\n",
		},
		{
			name:     "simulation longer",
			sim:      []float64{1, 2},
			ref:      []float64{3},
			expected: "Simulation EpiFlu\n1 3\n2 \n",
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteDistances(&buf, test.sim, test.ref); err != nil {
				t.Fatalf("unexpected error %s", err)
			}
			if buf.String() != test.expected {
				t.Errorf("output %q != expected %q", buf.String(), test.expected)
			}
		})
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	dist := metrics.Distribution{100, 0}
	path := filepath.Join(dir, "egypt_depth.dat")
	if err := WriteDistributionFile(path, "Depth", dist, dist); err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Depth Simulation EpiFlu\n0 100 100\n1 0 0\n" {
		t.Errorf("unexpected file content %q", string(data))
	}
	path = filepath.Join(dir, "egypt_distances.dat")
	if err := WriteDistancesFile(path, []float64{1}, []float64{2}); err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	err = WriteDistancesFile(filepath.Join(dir, "missing", "x.dat"), []float64{1}, []float64{2})
	if !errors.Is(err, ErrWritingFile) {
		t.Errorf("expected %s, got %v", ErrWritingFile, err)
	}
}

func TestWriteDistributionPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "egypt_children.png")
	sim := metrics.Distribution{60, 10, 30, 0, 0, 0}
	ref := metrics.Distribution{50, 0, 40, 10, 0, 0}
	if err := WriteDistributionPlot(path, "Children", sim, ref); err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("plot was not written: %v", err)
	}
}
