package service

import (
	"context"

	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/stats"
)

// GenerateInsight returns the insight for a dataset, creating it on first
// request. created is false when an insight already existed.
func (s *Service) GenerateInsight(ctx context.Context, userID, datasetID string) (rec *insight.Record, created bool, err error) {
	d, err := s.store.GetDataset(ctx, userID, datasetID)
	if err != nil {
		return nil, false, err
	}
	return s.insights.Generate(ctx, userID, d.ID, stats.Summarize(d.Table()))
}

// Insight returns the stored insight for a dataset.
func (s *Service) Insight(ctx context.Context, userID, datasetID string) (*insight.Record, error) {
	return s.store.FindInsight(ctx, userID, datasetID)
}

// Insights lists a user's insights, newest first.
func (s *Service) Insights(ctx context.Context, userID string) ([]*insight.Record, error) {
	return s.store.ListInsights(ctx, userID)
}
