package chart

import (
	"fmt"

	"github.com/klytics/sheetsight/internal/dataset"
)

// markerStyle holds the presentation constants of a 3D kind.
type markerStyle struct {
	size       int
	colorScale string
	line       *MarkerLine
	title      string
}

var styles3D = map[Kind]markerStyle{
	Scatter3D: {size: 5, colorScale: "Viridis", title: "3D Scatter"},
	Bar3D:     {size: 8, colorScale: "Portland", title: "3D Bar", line: &MarkerLine{Color: "white", Width: 0.5}},
}

// Derive maps a request onto chart data. The dataset is only read.
func Derive(ds *dataset.Dataset, req Request) (*Result, error) {
	if !ds.HasHeader(req.XAxis) || !ds.HasHeader(req.YAxis) {
		return nil, fmt.Errorf("%w: x=%q y=%q", ErrInvalidAxis, req.XAxis, req.YAxis)
	}

	if req.Kind.Is3D() {
		if req.ZAxis == "" || !ds.HasHeader(req.ZAxis) {
			return nil, fmt.Errorf("%w: z=%q", ErrMissing3DAxis, req.ZAxis)
		}
		return &Result{Plot: derive3D(ds, req)}, nil
	}

	if req.Aggregation == "" || req.Aggregation == None {
		return &Result{Series: deriveRaw(ds, req)}, nil
	}
	series, err := deriveAggregated(ds, req)
	if err != nil {
		return nil, err
	}
	return &Result{Series: series}, nil
}

func derive3D(ds *dataset.Dataset, req Request) *Trace3D {
	style := styles3D[req.Kind]
	n := ds.RowCount()
	xs := make([]AxisValue, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	text := make([]string, n)

	for i, rec := range ds.Records {
		raw := rec.Get(req.XAxis)
		switch x, ok := dataset.Coerce(raw); {
		case ok:
			xs[i] = Numeric(x)
		case raw.IsNull():
			xs[i] = NullAxis()
		default:
			xs[i] = Categorical(raw.Key())
		}
		ys[i] = dataset.CoerceOrZero(rec.Get(req.YAxis))
		zs[i] = dataset.CoerceOrZero(rec.Get(req.ZAxis))
		text[i] = fmt.Sprintf("%s: %s<br>%s: %s<br>%s: %s",
			req.XAxis, xs[i],
			req.YAxis, dataset.Number(ys[i]),
			req.ZAxis, dataset.Number(zs[i]))
	}

	return &Trace3D{
		Traces: []Trace{{
			Type: "scatter3d",
			Mode: "markers",
			X:    xs,
			Y:    ys,
			Z:    zs,
			Marker: Marker{
				Size:       style.size,
				Color:      zs,
				ColorScale: style.colorScale,
				ShowScale:  true,
				Line:       style.line,
			},
			Text: text,
		}},
		Layout: Layout{
			Scene: Scene{
				XAxis: Axis{Title: req.XAxis},
				YAxis: Axis{Title: req.YAxis},
				ZAxis: Axis{Title: req.ZAxis},
			},
			Title: fmt.Sprintf("%s: %s vs %s vs %s", style.title, req.XAxis, req.YAxis, req.ZAxis),
		},
	}
}

func deriveRaw(ds *dataset.Dataset, req Request) *Series2D {
	labels := make([]dataset.Value, ds.RowCount())
	data := make([]float64, ds.RowCount())
	for i, rec := range ds.Records {
		labels[i] = rec.Get(req.XAxis)
		data[i] = dataset.CoerceOrZero(rec.Get(req.YAxis))
	}
	color := Colors(1)[0]
	return &Series2D{
		Labels: labels,
		Datasets: []DataSeries{{
			Label:           req.YAxis,
			Data:            data,
			BackgroundColor: Single(color),
			BorderColor:     Single(color),
		}},
	}
}

// group is the y values of every row sharing one x key.
type group struct {
	key    string
	values []float64
}

func deriveAggregated(ds *dataset.Dataset, req Request) (*Series2D, error) {
	var groups []*group
	index := make(map[string]*group)
	for _, rec := range ds.Records {
		key := rec.Get(req.XAxis).Key()
		g, ok := index[key]
		if !ok {
			g = &group{key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.values = append(g.values, dataset.CoerceOrZero(rec.Get(req.YAxis)))
	}

	labels := make([]dataset.Value, len(groups))
	data := make([]float64, len(groups))
	for i, g := range groups {
		v, err := Reduce(req.Aggregation, g.values)
		if err != nil {
			return nil, err
		}
		labels[i] = dataset.String(g.key)
		data[i] = v
	}

	colors := Colors(len(groups))
	var fill Color
	switch {
	case req.Kind.Categorical():
		fill = PerLabel(colors)
	case len(colors) > 0:
		fill = Single(colors[0])
	default:
		fill = Single(Colors(1)[0])
	}

	return &Series2D{
		Labels: labels,
		Datasets: []DataSeries{{
			Label:           req.YAxis,
			Data:            data,
			BackgroundColor: fill,
			BorderColor:     fill,
		}},
	}, nil
}

// Reduce applies agg to a non-empty group of values. Count ignores the
// values themselves.
func Reduce(agg Aggregation, xs []float64) (float64, error) {
	switch agg {
	case Sum:
		return sum(xs), nil
	case Avg:
		if len(xs) == 0 {
			return 0, nil
		}
		return sum(xs) / float64(len(xs)), nil
	case Count:
		return float64(len(xs)), nil
	case Min:
		return extremum(xs, func(a, b float64) bool { return a < b }), nil
	case Max:
		return extremum(xs, func(a, b float64) bool { return a > b }), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAggregation, agg)
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

func extremum(xs []float64, better func(a, b float64) bool) float64 {
	if len(xs) == 0 {
		return 0
	}
	best := xs[0]
	for _, x := range xs[1:] {
		if better(x, best) {
			best = x
		}
	}
	return best
}
