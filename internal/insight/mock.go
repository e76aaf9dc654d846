package insight

import (
	"fmt"

	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/stats"
)

// maxMockFindings caps the per-column findings of a fallback insight.
const maxMockFindings = 3

// Draft is an insight body before it is normalized and stored.
type Draft struct {
	Summary         string    `json:"summary"`
	KeyFindings     []Finding `json:"keyFindings"`
	Trends          []string  `json:"trends"`
	Recommendations []string  `json:"recommendations"`
}

// Mock derives an insight from the summary statistics alone. The output
// depends only on s.
func Mock(s *stats.Summary) Draft {
	numeric := s.NumericColumns()
	columns := len(s.Headers)

	findings := make([]Finding, 0, maxMockFindings)
	for _, col := range numeric {
		if len(findings) == maxMockFindings {
			break
		}
		st := s.Statistics[col]
		findings = append(findings, Finding{
			Title: fmt.Sprintf("%s Analysis", col),
			Value: fmt.Sprintf("Avg: %.2f", st.Avg),
			Description: fmt.Sprintf("Range from %s to %s across %d data points",
				dataset.Number(st.Min), dataset.Number(st.Max), st.Count),
		})
	}
	if len(findings) == 0 {
		findings = append(findings, Finding{
			Title:       "Data Overview",
			Value:       fmt.Sprintf("%d records", s.RowCount),
			Description: fmt.Sprintf("Dataset contains %d columns with comprehensive data points", columns),
		})
	}

	numericTrend := "Multiple data columns available for analysis"
	if len(numeric) > 0 {
		numericTrend = fmt.Sprintf("%d numeric columns identified with statistical patterns", len(numeric))
	}
	compare := "Review data patterns for insights"
	if len(numeric) > 1 {
		compare = "Compare numeric fields to identify relationships and patterns"
	}

	return Draft{
		Summary: fmt.Sprintf("Analysis of %s: This dataset contains %d rows with %d columns. "+
			"The data shows %d numeric fields with varying patterns. "+
			"Key metrics have been calculated and trends identified across the dataset.",
			s.Filename, s.RowCount, columns, len(numeric)),
		KeyFindings: findings,
		Trends: []string{
			fmt.Sprintf("Dataset contains %d total records across %d different fields", s.RowCount, columns),
			numericTrend,
			"Data structure is well-formed and ready for visualization",
		},
		Recommendations: []string{
			"Consider creating visualizations to better understand data distributions",
			"Explore correlations between different data fields",
			compare,
			"Use aggregation functions to summarize key metrics",
		},
	}
}
