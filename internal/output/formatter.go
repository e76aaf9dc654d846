// Package output renders command results as colored text tables or as the
// JSON envelope.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/stats"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	dim     = color.New(color.Faint)
	bullet  = color.New(color.FgGreen).Sprint("•")
)

// Writer renders results to a destination.
type Writer struct {
	dest io.Writer
}

// NewWriter creates a Writer over dest.
func NewWriter(dest io.Writer) *Writer {
	return &Writer{dest: dest}
}

// Records prints records as a table in header order.
func (w *Writer) Records(headers []string, records []dataset.Record) error {
	tw := tabwriter.NewWriter(w.dest, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, heading.Sprint(strings.Join(headers, "\t")))
	for _, r := range records {
		cells := make([]string, len(headers))
		for i, h := range headers {
			v := r.Get(h)
			if v.IsNull() {
				cells[i] = dim.Sprint("-")
				continue
			}
			cells[i] = v.String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Summary prints the dataset overview and per-column statistics.
func (w *Writer) Summary(s *stats.Summary) error {
	heading.Fprintf(w.dest, "%s\n", s.Filename)
	fmt.Fprintf(w.dest, "%d rows, %d columns\n", s.RowCount, s.ColumnCount)
	fmt.Fprintf(w.dest, "Columns: %s\n\n", strings.Join(s.Headers, ", "))

	numeric := s.NumericColumns()
	if len(numeric) == 0 {
		dim.Fprintln(w.dest, "No numeric columns.")
		return nil
	}
	tw := tabwriter.NewWriter(w.dest, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, heading.Sprint("column\tcount\tmin\tmax\tavg"))
	for _, h := range numeric {
		c := s.Statistics[h]
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.2f\n", h, c.Count,
			dataset.Number(c.Min), dataset.Number(c.Max), c.Avg)
	}
	return tw.Flush()
}

// Chart prints derived chart data as a table.
func (w *Writer) Chart(title string, r *chart.Result) error {
	if title != "" {
		heading.Fprintf(w.dest, "%s\n", title)
	}
	tw := tabwriter.NewWriter(w.dest, 0, 0, 2, ' ', 0)
	if r.Is3D() {
		fmt.Fprintln(tw, heading.Sprint("x\ty\tz"))
		for _, t := range r.Plot.Traces {
			for i := range t.X {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.X[i],
					dataset.Number(t.Y[i]), dataset.Number(t.Z[i]))
			}
		}
		return tw.Flush()
	}

	cols := []string{"label"}
	for _, ds := range r.Series.Datasets {
		cols = append(cols, ds.Label)
	}
	fmt.Fprintln(tw, heading.Sprint(strings.Join(cols, "\t")))
	for i, label := range r.Series.Labels {
		cells := []string{label.String()}
		for _, ds := range r.Series.Datasets {
			cells = append(cells, dataset.Number(ds.Data[i]).String())
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Insight prints an insight record.
func (w *Writer) Insight(rec *insight.Record) error {
	heading.Fprintln(w.dest, "Summary")
	fmt.Fprintf(w.dest, "  %s\n", rec.Summary)

	if len(rec.KeyFindings) > 0 {
		heading.Fprintln(w.dest, "\nKey findings")
		for _, f := range rec.KeyFindings {
			fmt.Fprintf(w.dest, "  %s %s: %s\n", bullet, f.Title, f.Value)
			if f.Description != "" {
				dim.Fprintf(w.dest, "    %s\n", f.Description)
			}
		}
	}
	w.list("Trends", rec.Trends)
	w.list("Recommendations", rec.Recommendations)
	dim.Fprintf(w.dest, "\nsource: %s, generated %s\n", rec.SourceModel, rec.GeneratedAt.Format("2006-01-02 15:04"))
	return nil
}

func (w *Writer) list(title string, items []string) {
	if len(items) == 0 {
		return
	}
	heading.Fprintf(w.dest, "\n%s\n", title)
	for _, item := range items {
		fmt.Fprintf(w.dest, "  %s %s\n", bullet, item)
	}
}

// KeyValues prints sorted key/value pairs.
func (w *Writer) KeyValues(kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(w.dest, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", heading.Sprint(k), kv[k])
	}
	return tw.Flush()
}
