package insight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klytics/sheetsight/internal/stats"
)

// Sources reported to a Recorder.
const (
	SourceAI       = "ai"
	SourceMock     = "mock"
	SourceExisting = "existing"
)

// Recorder observes orchestrator outcomes, typically for metrics.
type Recorder interface {
	InsightGenerated(source string)
	GenerationFailed(provider string)
}

type nopRecorder struct{}

func (nopRecorder) InsightGenerated(string) {}
func (nopRecorder) GenerationFailed(string) {}

// Orchestrator generates and stores insights. Generation happens at most once
// per (user, dataset); later calls return the stored record.
type Orchestrator struct {
	store      Store
	capability Capability
	logger     *slog.Logger
	recorder   Recorder
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for generation failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder sets the outcome observer.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock overrides the time source for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator returns an Orchestrator over store using capability.
func NewOrchestrator(store Store, capability Capability, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		capability: capability,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder:   nopRecorder{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(slog.String("component", "insight"))
	return o
}

// Generate returns the insight for (userID, datasetID), creating it from s
// when none exists. created is false when an existing record was returned.
// Generator failures never fail the call; they fall back to Mock.
func (o *Orchestrator) Generate(ctx context.Context, userID, datasetID string, s *stats.Summary) (rec *Record, created bool, err error) {
	existing, err := o.store.FindInsight(ctx, userID, datasetID)
	switch {
	case err == nil:
		o.relink(ctx, datasetID, existing)
		o.recorder.InsightGenerated(SourceExisting)
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return nil, false, fmt.Errorf("could not look up insight: %w", err)
	}

	draft, model, source := o.draft(ctx, s)
	rec = &Record{
		UserID:          userID,
		DatasetID:       datasetID,
		Summary:         draft.Summary,
		KeyFindings:     draft.KeyFindings,
		Trends:          draft.Trends,
		Recommendations: draft.Recommendations,
		SourceModel:     model,
		GeneratedAt:     o.now().UTC(),
	}
	normalize(rec)

	if err := o.store.CreateInsight(ctx, rec); err != nil {
		if !errors.Is(err, ErrDuplicate) {
			return nil, false, fmt.Errorf("could not store insight: %w", err)
		}
		// A concurrent request won the insert.
		winner, ferr := o.store.FindInsight(ctx, userID, datasetID)
		if ferr != nil {
			return nil, false, fmt.Errorf("could not load concurrent insight: %w", ferr)
		}
		o.relink(ctx, datasetID, winner)
		o.recorder.InsightGenerated(SourceExisting)
		return winner, false, nil
	}

	if err := o.store.AttachInsight(ctx, datasetID, rec.ID); err != nil {
		return nil, false, fmt.Errorf("could not link insight to dataset: %w", err)
	}
	o.recorder.InsightGenerated(source)
	return rec, true, nil
}

// relink sets the dataset back-reference of a stored record again. An
// earlier attach may have failed after the insert succeeded; AttachInsight
// is idempotent, so a failure here is logged and the record still returned.
func (o *Orchestrator) relink(ctx context.Context, datasetID string, rec *Record) {
	if err := o.store.AttachInsight(ctx, datasetID, rec.ID); err != nil {
		o.logger.WarnContext(ctx, "could not link existing insight to dataset",
			slog.String("dataset", datasetID),
			slog.String("insight", rec.ID),
			slog.String("error", err.Error()))
	}
}

// draft produces the insight body and names its model and source.
func (o *Orchestrator) draft(ctx context.Context, s *stats.Summary) (Draft, string, string) {
	if !o.capability.Ready() {
		o.logger.InfoContext(ctx, "no generator configured, using mock insight",
			slog.String("file", s.Filename))
		return Mock(s), MockModel, SourceMock
	}

	prompt, err := BuildPrompt(s)
	if err != nil {
		o.logger.WarnContext(ctx, "could not build prompt, using mock insight", slog.String("error", err.Error()))
		return Mock(s), MockModel, SourceMock
	}

	model := o.capability.Model()
	raw, err := o.capability.gen.Generate(ctx, SystemInstruction, prompt)
	if err != nil {
		o.recorder.GenerationFailed(o.capability.Provider())
		o.logger.WarnContext(ctx, "generation failed, using mock insight",
			slog.String("provider", o.capability.Provider()),
			slog.String("model", model),
			slog.String("error", err.Error()))
		return Mock(s), MockModel, SourceMock
	}

	d, ok := ParseResponse(raw)
	if !ok {
		o.logger.WarnContext(ctx, "generator response is not structured JSON, keeping raw text",
			slog.String("model", model),
			slog.Int("bytes", len(raw)))
	}
	return d, model, SourceAI
}

func normalize(r *Record) {
	if r.Summary == "" {
		r.Summary = DefaultSummary
	}
	if r.KeyFindings == nil {
		r.KeyFindings = []Finding{}
	}
	if r.Trends == nil {
		r.Trends = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
}
