package commands

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"sigma-mcp/internal/doe"
	"sigma-mcp/internal/simulation"
	"sigma-mcp/internal/stats"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

const notAvailable = "n/a"

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// fixed formats v with four decimals, or n/a when it is not finite.
func fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func level(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func renderDesign(w io.Writer, factors []doe.Factor, runs []doe.Run) {
	t := newTable(w, fmt.Sprintf("Full factorial design (%d runs)", len(runs)))

	header := table.Row{"Run"}
	for _, f := range factors {
		header = append(header, f.Name)
	}
	t.AppendHeader(append(header, "Y"))

	for _, r := range runs {
		row := table.Row{r.ID}
		for _, f := range factors {
			row = append(row, level(r.Factors[f.Name]))
		}
		y := "-"
		if r.HasOutput() {
			y = level(*r.Output)
		}
		t.AppendRow(append(row, y))
	}
	t.Render()
}

func renderEffects(w io.Writer, effects []doe.MainEffect, interactions []doe.InteractionEffect) {
	t := newTable(w, "Main effects")
	t.AppendHeader(table.Row{"Factor", "Effect", "Slope", "Low mean", "High mean"})
	for _, e := range effects {
		t.AppendRow(table.Row{e.Factor, fixed(e.Effect), fixed(e.Slope), fixed(e.LowMean), fixed(e.HighMean)})
	}
	t.Render()

	if len(interactions) == 0 {
		return
	}
	fmt.Fprintln(w)
	t = newTable(w, "Two-factor interactions")
	t.AppendHeader(table.Row{"Factors", "Interaction"})
	for _, ie := range interactions {
		t.AppendRow(table.Row{ie.Factor1 + " x " + ie.Factor2, fixed(ie.Interaction)})
	}
	t.Render()
}

func renderCapability(w io.Writer, res simulation.Result, cfg simulation.Config) {
	t := newTable(w, "Process capability")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Formula", cfg.Formula},
		{"Iterations", humanize.Comma(int64(res.Iterations))},
		{"LSL", fixed(cfg.LSL)},
		{"USL", fixed(cfg.USL)},
		{"Mean", fixed(res.Mean)},
		{"Std dev", fixed(res.StdDev)},
		{"Min", fixed(res.Min)},
		{"Max", fixed(res.Max)},
		{"Cp", fixed(res.Cp)},
		{"Cpk", fixed(res.Cpk)},
		{"Cpu", fixed(res.Cpu)},
		{"Cpl", fixed(res.Cpl)},
		{"Sigma level", fixed(res.SigmaLevel)},
		{"DPMO", humanize.Commaf(math.Round(res.DPMO))},
		{"Defects", humanize.Comma(int64(res.Defects))},
	})
	t.Render()
}

func renderHistogram(w io.Writer, bins []simulation.HistogramBin) {
	if len(bins) == 0 {
		return
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}

	t := newTable(w, "Distribution")
	t.AppendHeader(table.Row{"From", "To", "Count", "Share"})
	for _, b := range bins {
		share := notAvailable
		if total > 0 {
			share = strconv.FormatFloat(100*float64(b.Count)/float64(total), 'f', 1, 64) + "%"
		}
		t.AppendRow(table.Row{stats.FormatAxisNumber(b.Start), stats.FormatAxisNumber(b.End), humanize.Comma(int64(b.Count)), share})
	}
	t.Render()
}
