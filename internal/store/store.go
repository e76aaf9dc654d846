// Package store persists datasets, charts and insights. Two backends are
// provided: an in-process memory store and MySQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/insight"
)

// ErrNotFound is returned when a row does not exist or belongs to another
// user.
var ErrNotFound = errors.New("not found")

// Dataset is an uploaded table with its upload metadata.
type Dataset struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	OriginalName string           `json:"originalName"`
	Size         int64            `json:"fileSize"`
	MimeType     string           `json:"mimeType"`
	SheetName    string           `json:"sheetName"`
	Headers      []string         `json:"headers"`
	Records      []dataset.Record `json:"data,omitempty"`
	RowCount     int              `json:"rowCount"`
	ColumnCount  int              `json:"columnCount"`
	ChartIDs     []string         `json:"charts"`
	InsightID    string           `json:"insights,omitempty"`
	CreatedAt    time.Time        `json:"uploadDate"`
}

// Table returns the dataset model for charting and statistics.
func (d *Dataset) Table() *dataset.Dataset {
	return &dataset.Dataset{Name: d.OriginalName, Headers: d.Headers, Records: d.Records}
}

// withoutRecords returns a shallow copy suitable for listings.
func (d *Dataset) withoutRecords() *Dataset {
	c := *d
	c.Records = nil
	c.ChartIDs = append([]string(nil), d.ChartIDs...)
	return &c
}

// ChartConfig is the request a chart was derived from.
type ChartConfig struct {
	XAxis       string `json:"xAxis"`
	YAxis       string `json:"yAxis"`
	ZAxis       string `json:"zAxis,omitempty"`
	Aggregation string `json:"aggregation"`
}

// Chart is a saved chart.
type Chart struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	DatasetID   string        `json:"fileId"`
	Kind        chart.Kind    `json:"chartType"`
	Config      ChartConfig   `json:"config"`
	Data        *chart.Result `json:"chartData"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Usage summarizes a user's uploads.
type Usage struct {
	TotalFiles int      `json:"totalFiles"`
	TotalSize  int64    `json:"totalSize"`
	Recent     *Dataset `json:"recentFile"`
}

// Store is the persistence contract used by the service layer. Every read
// is scoped to a user; foreign rows are reported as ErrNotFound. Listings
// are newest first and omit dataset records.
type Store interface {
	insight.Store

	CreateDataset(ctx context.Context, d *Dataset) error
	GetDataset(ctx context.Context, userID, id string) (*Dataset, error)
	ListDatasets(ctx context.Context, userID string) ([]*Dataset, error)
	// DeleteDataset removes the dataset with its charts and insight.
	DeleteDataset(ctx context.Context, userID, id string) error
	Usage(ctx context.Context, userID string) (*Usage, error)

	// CreateChart saves c and appends its id to the dataset.
	CreateChart(ctx context.Context, c *Chart) error
	GetChart(ctx context.Context, userID, id string) (*Chart, error)
	// ListCharts lists a user's charts, restricted to one dataset when
	// datasetID is not empty.
	ListCharts(ctx context.Context, userID, datasetID string) ([]*Chart, error)
	DeleteChart(ctx context.Context, userID, id string) error

	ListInsights(ctx context.Context, userID string) ([]*insight.Record, error)

	Close() error
}

// Config selects a backend.
type Config struct {
	Driver string
	DSN    string
}

// Open returns the backend named by cfg.Driver. The MySQL backend creates
// its tables when they are missing.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemory(), nil
	case "mysql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("mysql store needs store.dsn")
		}
		return OpenMySQL(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q; supported drivers: memory, mysql", cfg.Driver)
	}
}
