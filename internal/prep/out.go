package prep

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jsdoublel/phyclust/internal/metrics"
)

const (
	SimColumn = "Simulation"
	RefColumn = "EpiFlu"

	plotH = 4 * vg.Inch
	plotW = 6 * vg.Inch

	maxTicks = 10
)

var (
	simLineColor = color.RGBA{R: 37, G: 150, B: 190, A: 255}
	refLineColor = color.RGBA{R: 214, G: 96, B: 77, A: 255}
	simMarker    = draw.SquareGlyph{}
	refMarker    = draw.CircleGlyph{}
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Writes all rows space separated
func writeRows(w io.Writer, data [][]string) (err error) {
	writer := csv.NewWriter(w)
	writer.Comma = ' '
	defer func() {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		} else if writer.Error() != nil {
			log.Printf("error when flushing output table, %s", writer.Error())
		}
	}()
	if err = writer.WriteAll(data); err != nil {
		err = fmt.Errorf("%w, %s", ErrWritingFile, err)
		return
	}
	return
}

// Writes distribution table. The header is "<binName> Simulation EpiFlu" and
// every following row is "<bin> <sim percent> <ref percent>".
func WriteDistribution(w io.Writer, binName string, sim, ref metrics.Distribution) error {
	if len(sim) != len(ref) {
		panic(fmt.Sprintf("distributions should have the same number of bins, %d != %d", len(sim), len(ref)))
	}
	data := make([][]string, len(sim)+1)
	data[0] = []string{binName, SimColumn, RefColumn}
	for i := range len(sim) {
		data[i+1] = []string{strconv.Itoa(i), formatFloat(sim[i]), formatFloat(ref[i])}
	}
	return writeRows(w, data)
}

// Writes the two leaf edge length lists as columns; the shorter column is
// padded with empty fields.
func WriteDistances(w io.Writer, sim, ref []float64) error {
	n := max(len(sim), len(ref))
	data := make([][]string, n+1)
	data[0] = []string{SimColumn, RefColumn}
	for i := range n {
		row := []string{"", ""}
		if i < len(sim) {
			row[0] = formatFloat(sim[i])
		}
		if i < len(ref) {
			row[1] = formatFloat(ref[i])
		}
		data[i+1] = row
	}
	return writeRows(w, data)
}

func WriteDistributionFile(path, binName string, sim, ref metrics.Distribution) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteDistribution(w, binName, sim, ref)
	})
}

func WriteDistancesFile(path string, sim, ref []float64) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteDistances(w, sim, ref)
	})
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w %s: %s", ErrWritingFile, path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w %s: %s", ErrWritingFile, path, cerr)
		}
	}()
	return write(file)
}

// Saves a line plot of both distributions as a png
func WriteDistributionPlot(path, binName string, sim, ref metrics.Distribution) error {
	p := plot.New()
	p.X.Label.Text = binName
	p.Y.Label.Text = "Percent of Nodes"
	p.X.Min = 0
	p.X.Max = float64(max(len(sim), len(ref)) - 1)
	p.X.Tick.Marker = plot.TickerFunc(func(_, max float64) []plot.Tick {
		step := 1
		if int(max) > maxTicks {
			step = int(math.Ceil(max / maxTicks))
		}
		ticks := make([]plot.Tick, 0, int(max)/step+2)
		for i := range int(max) + 1 {
			if i%step == 0 {
				ticks = append(ticks, plot.Tick{Value: float64(i), Label: fmt.Sprintf("%d", i)})
			} else {
				ticks = append(ticks, plot.Tick{Value: float64(i)})
			}
		}
		return ticks
	})
	p.Y.Min = 0
	p.Y.Max = 100
	p.Legend.Top = true
	for _, series := range []struct {
		name   string
		dist   metrics.Distribution
		color  color.Color
		marker draw.GlyphDrawer
		dashes []vg.Length
	}{
		{SimColumn, sim, simLineColor, simMarker, []vg.Length{vg.Points(6), vg.Points(3)}},
		{RefColumn, ref, refLineColor, refMarker, nil},
	} {
		pts := make(plotter.XYs, len(series.dist))
		for i, pct := range series.dist {
			pts[i].X = float64(i)
			pts[i].Y = pct
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return err
		}
		line.Color = series.color
		line.Dashes = series.dashes
		points.Color = series.color
		points.Shape = series.marker
		points.Radius = vg.Points(4)
		p.Add(line, points)
		p.Legend.Add(series.name, line, points)
	}
	if err := p.Save(plotW, plotH, path); err != nil {
		return fmt.Errorf("%w %s: %s", ErrWritingFile, path, err)
	}
	return nil
}
