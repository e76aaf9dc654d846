package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/report"
	"github.com/klytics/sheetsight/internal/stats"
)

// Report gathers an upload with its statistics, saved charts and insight.
// The insight is included only when one was already generated.
func (s *Service) Report(ctx context.Context, userID, id string) (report.Input, error) {
	d, err := s.store.GetDataset(ctx, userID, id)
	if err != nil {
		return report.Input{}, err
	}
	table := d.Table()
	in := report.Input{Table: table, Summary: stats.Summarize(table)}

	charts, err := s.store.ListCharts(ctx, userID, d.ID)
	if err != nil {
		return report.Input{}, err
	}
	// Listings are newest first; the report reads oldest first.
	for i := len(charts) - 1; i >= 0; i-- {
		c := charts[i]
		if c.Data == nil {
			continue
		}
		in.Charts = append(in.Charts, report.Chart{Title: c.Title, Kind: c.Kind, Data: c.Data})
	}

	rec, err := s.store.FindInsight(ctx, userID, d.ID)
	switch {
	case err == nil:
		in.Insight = rec
	case !errors.Is(err, insight.ErrNotFound):
		return report.Input{}, err
	}
	return in, nil
}

// ReportName is the download name for the report of an upload.
func ReportName(original string) string {
	base := strings.TrimSuffix(original, filepath.Ext(original))
	if base == "" {
		base = "dataset"
	}
	return base + "-report.xlsx"
}
