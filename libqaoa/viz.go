package libqaoa

import (
	"io"
	"sort"

	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// RenderHistogram writes a PNG bar chart of the topN most sampled
// assignments (all of them when topN is 0). Ties keep ascending state
// order, so equal histograms render identically.
func RenderHistogram(counts goqaoa.Counts, topN int, pngPath string) error {
	if counts.NumSamples() == 0 {
		return goqaoa.ErrNoSamples
	}
	oids, err := counts.SortedIDs()
	if err != nil {
		return err
	}

	type bin struct {
		bits  goqaoa.Bitstring
		count int64
	}
	bins := make([]bin, 0, len(oids))
	for _, oid := range oids {
		bits := oid.Bits()
		bins = append(bins, bin{bits, counts[bits]})
	}
	sort.SliceStable(bins, func(i, j int) bool {
		return bins[i].count > bins[j].count
	})
	if topN > 0 && len(bins) > topN {
		bins = bins[:topN]
	}

	values := make(plotter.Values, len(bins))
	labels := make([]string, len(bins))
	for i, b := range bins {
		values[i] = float64(b.count)
		labels[i] = string(b.bits)
	}

	p := plot.New()
	p.Title.Text = "sampled assignments"
	p.Y.Label.Text = "counts"

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return err
	}
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(6*vg.Inch, 4*vg.Inch, pngPath)
}

// WriteDOT renders X in Graphviz DOT form.
func WriteDOT(X *Graph, name string, out io.Writer) error {
	if X == nil {
		return goqaoa.ErrNilGraph
	}
	buf, err := dot.Marshal(X.Undirected(), name, "", "  ")
	if err != nil {
		return err
	}
	_, err = out.Write(buf)
	return err
}

// PrintHistogram writes one line per sampled assignment in ascending state
// order, scored against X when one is given. Returns the line count.
func PrintHistogram(out io.Writer, X *Graph, counts goqaoa.Counts, opts goqaoa.PrintOpts) int {
	var cut goqaoa.CutFunc
	if X != nil {
		cut = X.CutFunc()
	}
	return goqaoa.StreamCounts(counts, cut).
		Print(goqaoa.NopWriteCloser(out), opts).
		PullAll()
}
