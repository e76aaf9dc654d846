package service

import (
	"context"
	"fmt"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/store"
)

// ChartInput describes a chart to derive and save.
type ChartInput struct {
	DatasetID   string
	Kind        string
	XAxis       string
	YAxis       string
	ZAxis       string
	Aggregation string
	Title       string
	Description string
}

// GenerateChart derives chart data from a stored dataset and saves it.
// The title defaults to "{y} vs {x}".
func (s *Service) GenerateChart(ctx context.Context, userID string, in ChartInput) (*store.Chart, error) {
	kind, err := chart.ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	agg, err := chart.ParseAggregation(in.Aggregation)
	if err != nil {
		return nil, err
	}

	d, err := s.store.GetDataset(ctx, userID, in.DatasetID)
	if err != nil {
		return nil, err
	}

	res, err := chart.Derive(d.Table(), chart.Request{
		Kind:        kind,
		XAxis:       in.XAxis,
		YAxis:       in.YAxis,
		ZAxis:       in.ZAxis,
		Aggregation: agg,
	})
	if err != nil {
		return nil, err
	}

	title := in.Title
	if title == "" {
		title = fmt.Sprintf("%s vs %s", in.YAxis, in.XAxis)
	}
	c := &store.Chart{
		UserID:    userID,
		DatasetID: d.ID,
		Kind:      kind,
		Config: store.ChartConfig{
			XAxis:       in.XAxis,
			YAxis:       in.YAxis,
			ZAxis:       in.ZAxis,
			Aggregation: string(agg),
		},
		Data:        res,
		Title:       title,
		Description: in.Description,
	}
	if !kind.Is3D() {
		c.Config.ZAxis = ""
	}
	if err := s.store.CreateChart(ctx, c); err != nil {
		return nil, fmt.Errorf("could not save chart: %w", err)
	}
	s.metrics.ChartGenerated(string(kind))
	s.logger.Info("chart generated", "user", userID, "dataset", d.ID, "chart", c.ID, "kind", kind, "aggregation", agg)
	return c, nil
}

// Charts lists a user's charts, optionally for one dataset.
func (s *Service) Charts(ctx context.Context, userID, datasetID string) ([]*store.Chart, error) {
	return s.store.ListCharts(ctx, userID, datasetID)
}

// Chart returns one saved chart.
func (s *Service) Chart(ctx context.Context, userID, id string) (*store.Chart, error) {
	return s.store.GetChart(ctx, userID, id)
}

// DeleteChart removes a saved chart.
func (s *Service) DeleteChart(ctx context.Context, userID, id string) error {
	return s.store.DeleteChart(ctx, userID, id)
}
