// Package service implements the SheetSight use cases on top of a store:
// uploads, chart generation, statistics and insights.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/formats/csv"
	"github.com/klytics/sheetsight/internal/formats/xlsx"
	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/stats"
	"github.com/klytics/sheetsight/internal/store"
)

// PreviewRows is the number of records returned with an upload.
const PreviewRows = 10

var (
	// ErrEmptyFile is returned when an upload has no data rows.
	ErrEmptyFile = errors.New("Excel file is empty")
	// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
	ErrUnsupportedFormat = errors.New("only Excel (.xlsx, .xls) and CSV files are allowed")
)

// Metrics receives upload and chart counts.
type Metrics interface {
	DatasetUploaded()
	ChartGenerated(kind string)
}

type nopMetrics struct{}

func (nopMetrics) DatasetUploaded()      {}
func (nopMetrics) ChartGenerated(string) {}

// Service wires the store, the insight orchestrator and metrics.
type Service struct {
	store    store.Store
	insights *insight.Orchestrator
	metrics  Metrics
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.With("component", "service")
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New returns a Service over st using orch for insights.
func New(st store.Store, orch *insight.Orchestrator, opts ...Option) *Service {
	s := &Service{
		store:    st,
		insights: orch,
		metrics:  nopMetrics{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadInput is a parsed upload.
type UploadInput struct {
	Name      string
	Size      int64
	MimeType  string
	SheetName string
	Rows      []dataset.Row
}

// UploadResult is the stored dataset, without records, and its first rows.
type UploadResult struct {
	Dataset *store.Dataset   `json:"file"`
	Preview []dataset.Record `json:"preview"`
}

// Parse reads an uploaded file by extension. It returns the rows and the
// sheet name (empty for csv).
func Parse(name string, data []byte) ([]dataset.Row, string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		t, err := xlsx.ReadBytes(data, "")
		if err != nil {
			return nil, "", err
		}
		return t.Rows, t.Sheet, nil
	case ".csv":
		rows, err := csv.ReadRecords(bytes.NewReader(data))
		return rows, "", err
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Upload infers the dataset from in and stores it for userID.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (*UploadResult, error) {
	ds, err := dataset.Infer(in.Name, in.Rows)
	if errors.Is(err, dataset.ErrEmptyDataset) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}

	d := &store.Dataset{
		UserID:       userID,
		OriginalName: in.Name,
		Size:         in.Size,
		MimeType:     in.MimeType,
		SheetName:    in.SheetName,
		Headers:      ds.Headers,
		Records:      ds.Records,
		RowCount:     ds.RowCount(),
		ColumnCount:  ds.ColumnCount(),
	}
	if err := s.store.CreateDataset(ctx, d); err != nil {
		return nil, fmt.Errorf("could not save dataset: %w", err)
	}
	s.metrics.DatasetUploaded()
	s.logger.Info("dataset uploaded", "user", userID, "dataset", d.ID, "name", in.Name, "rows", d.RowCount, "columns", d.ColumnCount)

	meta := *d
	meta.Records = nil
	return &UploadResult{Dataset: &meta, Preview: ds.Preview(PreviewRows)}, nil
}

// IngestFile reads path from disk and uploads it for userID.
func (s *Service) IngestFile(ctx context.Context, userID, path string) (*UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	name := filepath.Base(path)
	rows, sheet, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	return s.Upload(ctx, userID, UploadInput{
		Name:      name,
		Size:      int64(len(data)),
		MimeType:  MimeType(name),
		SheetName: sheet,
		Rows:      rows,
	})
}

// MimeType guesses the upload content type from the file name.
func MimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// Datasets lists a user's uploads, newest first.
func (s *Service) Datasets(ctx context.Context, userID string) ([]*store.Dataset, error) {
	return s.store.ListDatasets(ctx, userID)
}

// Dataset returns one upload with its records.
func (s *Service) Dataset(ctx context.Context, userID, id string) (*store.Dataset, error) {
	return s.store.GetDataset(ctx, userID, id)
}

// DeleteDataset removes an upload with its charts and insight.
func (s *Service) DeleteDataset(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteDataset(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("dataset deleted", "user", userID, "dataset", id)
	return nil
}

// Usage summarizes a user's uploads.
func (s *Service) Usage(ctx context.Context, userID string) (*store.Usage, error) {
	return s.store.Usage(ctx, userID)
}

// Stats summarizes one upload.
func (s *Service) Stats(ctx context.Context, userID, id string) (*stats.Summary, error) {
	d, err := s.store.GetDataset(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return stats.Summarize(d.Table()), nil
}
