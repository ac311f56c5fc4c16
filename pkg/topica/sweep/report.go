package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultPlotPath is where the coherence plot is written.
const DefaultPlotPath = "output/n_topics_coherence.jpg"

// Row is one line of the sweep table.
type Row struct {
	K         int
	Coherence float64
}

// Table returns (K, coherence) rows in sweep order.
func Table(points []Point) []Row {
	rows := make([]Row, len(points))
	for i, p := range points {
		rows[i] = Row{K: p.K, Coherence: p.Coherence}
	}
	return rows
}

// WriteTable writes the sweep table as CSV with header num_topics,coherence.
func WriteTable(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"num_topics", "coherence"}); err != nil {
		return err
	}
	for _, r := range Table(points) {
		if err := cw.Write([]string{strconv.Itoa(r.K), strconv.FormatFloat(r.Coherence, 'f', 4, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Plot renders coherence against topic count and saves it to path. The
// image format follows the extension; the parent directory is created.
func Plot(points []Point, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("plot: no sweep points")
	}
	if path == "" {
		path = DefaultPlotPath
	}

	p := plot.New()
	p.X.Label.Text = "Num Topics"
	p.Y.Label.Text = "Coherence score"

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.K)
		xys[i].Y = pt.Coherence
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	p.Add(line)
	p.Legend.Add("coherence_values", line)
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}
