// Package chart derives renderer-ready chart data from a dataset: Chart.js
// style 2D series and Plotly style 3D traces.
package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/klytics/sheetsight/internal/dataset"
)

var (
	// ErrInvalidAxis means the x or y axis is not a header of the dataset.
	ErrInvalidAxis = errors.New("invalid axis selection")
	// ErrMissing3DAxis means a 3D chart was requested without a valid z axis.
	ErrMissing3DAxis = errors.New("invalid z-axis selection for 3D chart")
	// ErrInvalidKind means the chart type is not supported.
	ErrInvalidKind = errors.New("unsupported chart type")
	// ErrInvalidAggregation means the aggregation is not supported.
	ErrInvalidAggregation = errors.New("unsupported aggregation")
)

// Kind is a chart type.
type Kind string

const (
	Bar       Kind = "bar"
	Line      Kind = "line"
	Pie       Kind = "pie"
	Doughnut  Kind = "doughnut"
	Scatter   Kind = "scatter"
	Radar     Kind = "radar"
	Scatter3D Kind = "scatter3d"
	Bar3D     Kind = "bar3d"
)

// Kinds lists every supported chart type.
var Kinds = []Kind{Bar, Line, Pie, Doughnut, Scatter, Radar, Scatter3D, Bar3D}

// ParseKind validates a chart type name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Is3D reports whether k is rendered as a 3D trace.
func (k Kind) Is3D() bool { return k == Scatter3D || k == Bar3D }

// Categorical reports whether k colors each label separately.
func (k Kind) Categorical() bool { return k == Pie || k == Doughnut }

// Aggregation is the reduction applied to y values sharing an x value.
type Aggregation string

const (
	None  Aggregation = "none"
	Sum   Aggregation = "sum"
	Avg   Aggregation = "avg"
	Count Aggregation = "count"
	Min   Aggregation = "min"
	Max   Aggregation = "max"
)

// Aggregations lists every supported aggregation.
var Aggregations = []Aggregation{None, Sum, Avg, Count, Min, Max}

// ParseAggregation validates an aggregation name. The empty string is None.
func ParseAggregation(s string) (Aggregation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return None, nil
	}
	for _, a := range Aggregations {
		if Aggregation(s) == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAggregation, s)
}

// Request selects the axes and shape of a chart.
type Request struct {
	Kind        Kind
	XAxis       string
	YAxis       string
	ZAxis       string
	Aggregation Aggregation
}

// Color is either one color for a whole dataset or one color per label.
type Color struct {
	values []string
	multi  bool
}

// Single returns a color applied to the whole dataset.
func Single(c string) Color { return Color{values: []string{c}} }

// PerLabel returns one color per label.
func PerLabel(cs []string) Color { return Color{values: cs, multi: true} }

// Values returns the colors held by c.
func (c Color) Values() []string { return c.values }

// IsPerLabel reports whether c holds one color per label.
func (c Color) IsPerLabel() bool { return c.multi }

func (c Color) MarshalJSON() ([]byte, error) {
	if c.multi {
		if c.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.values)
	}
	if len(c.values) == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(c.values[0])
}

func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var vs []string
		if err := json.Unmarshal(data, &vs); err != nil {
			return err
		}
		*c = PerLabel(vs)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Single(s)
	return nil
}

// DataSeries is one Chart.js dataset.
type DataSeries struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor Color     `json:"backgroundColor"`
	BorderColor     Color     `json:"borderColor"`
}

// Series2D is chart data for the 2D kinds.
type Series2D struct {
	Labels   []dataset.Value `json:"labels"`
	Datasets []DataSeries    `json:"datasets"`
}

// AxisValue is a 3D x coordinate: numeric when the cell coerces, null for
// an empty cell, otherwise the categorical text of the cell.
type AxisValue struct {
	num     float64
	text    string
	numeric bool
	null    bool
}

// NullAxis returns the axis value of an empty cell.
func NullAxis() AxisValue { return AxisValue{null: true} }

// IsNull reports whether a came from an empty cell.
func (a AxisValue) IsNull() bool { return a.null }

// Numeric returns a numeric axis value.
func Numeric(n float64) AxisValue { return AxisValue{num: n, numeric: true} }

// Categorical returns a text axis value.
func Categorical(s string) AxisValue { return AxisValue{text: s} }

// Num returns the numeric payload and whether a is numeric.
func (a AxisValue) Num() (float64, bool) { return a.num, a.numeric }

// String formats a for hover text.
func (a AxisValue) String() string {
	switch {
	case a.numeric:
		return dataset.Number(a.num).Key()
	case a.null:
		return "null"
	}
	return a.text
}

func (a AxisValue) MarshalJSON() ([]byte, error) {
	switch {
	case a.numeric:
		return json.Marshal(a.num)
	case a.null:
		return []byte("null"), nil
	}
	return json.Marshal(a.text)
}

func (a *AxisValue) UnmarshalJSON(data []byte) error {
	var v dataset.Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	if n, ok := v.Num(); ok {
		*a = Numeric(n)
		return nil
	}
	if v.IsNull() {
		*a = NullAxis()
		return nil
	}
	*a = Categorical(v.Key())
	return nil
}

// MarkerLine outlines 3D markers.
type MarkerLine struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Marker styles the points of a trace.
type Marker struct {
	Size       int         `json:"size"`
	Color      []float64   `json:"color"`
	ColorScale string      `json:"colorscale"`
	ShowScale  bool        `json:"showscale"`
	Line       *MarkerLine `json:"line,omitempty"`
}

// Trace is one Plotly 3D trace.
type Trace struct {
	Type   string      `json:"type"`
	Mode   string      `json:"mode"`
	X      []AxisValue `json:"x"`
	Y      []float64   `json:"y"`
	Z      []float64   `json:"z"`
	Marker Marker      `json:"marker"`
	Text   []string    `json:"text"`
}

// Axis is a titled scene axis.
type Axis struct {
	Title string `json:"title"`
}

// Scene holds the three axes of a 3D layout.
type Scene struct {
	XAxis Axis `json:"xaxis"`
	YAxis Axis `json:"yaxis"`
	ZAxis Axis `json:"zaxis"`
}

// Layout is the Plotly layout for a 3D chart.
type Layout struct {
	Scene Scene  `json:"scene"`
	Title string `json:"title"`
}

// Trace3D is chart data for the 3D kinds.
type Trace3D struct {
	Traces []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Result is the derived chart data. Exactly one of Series and Plot is set.
type Result struct {
	Series *Series2D
	Plot   *Trace3D
}

// Is3D reports whether r holds a 3D trace.
func (r *Result) Is3D() bool { return r.Plot != nil }

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Plot != nil {
		return json.Marshal(r.Plot)
	}
	if r.Series != nil {
		return json.Marshal(r.Series)
	}
	return []byte("null"), nil
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe == nil {
		*r = Result{}
		return nil
	}
	if _, ok := probe["layout"]; ok {
		var t Trace3D
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*r = Result{Plot: &t}
		return nil
	}
	var s Series2D
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Result{Series: &s}
	return nil
}
