// Package insight turns a dataset summary into a structured narrative,
// either through an external text generator or a deterministic fallback,
// and keeps at most one insight per user and dataset.
package insight

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by a Store when no insight exists for the pair.
	ErrNotFound = errors.New("insight not found")
	// ErrDuplicate is returned by a Store when an insight already exists for
	// the (user, dataset) pair being inserted.
	ErrDuplicate = errors.New("insight already exists")
)

// MockModel is the SourceModel of insights built by the fallback path.
const MockModel = "mock"

// DefaultSummary replaces an empty summary before a record is stored.
const DefaultSummary = "No summary available"

// Finding is one headline metric of an insight.
type Finding struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Record is a stored insight. It is never updated in place.
type Record struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	DatasetID       string    `json:"fileId"`
	Summary         string    `json:"summary"`
	KeyFindings     []Finding `json:"keyFindings"`
	Trends          []string  `json:"trends"`
	Recommendations []string  `json:"recommendations"`
	SourceModel     string    `json:"sourceModel"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// Store persists insights. CreateInsight must enforce uniqueness of
// (UserID, DatasetID) atomically and report a violation as ErrDuplicate.
type Store interface {
	FindInsight(ctx context.Context, userID, datasetID string) (*Record, error)
	CreateInsight(ctx context.Context, rec *Record) error
	AttachInsight(ctx context.Context, datasetID, insightID string) error
}

// Generator produces free text for a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

// Capability is the external generation capability handed to an
// Orchestrator: either a Generator or an explicit unavailable marker.
type Capability struct {
	gen Generator
}

// Available wraps g as a usable capability. A nil g is unavailable.
func Available(g Generator) Capability { return Capability{gen: g} }

// Unavailable returns the capability that always takes the fallback path.
func Unavailable() Capability { return Capability{} }

// Ready reports whether an external generator is configured.
func (c Capability) Ready() bool { return c.gen != nil }

// Provider names the generator's backend when it reports one through a
// Name method, otherwise its model. It is MockModel when unavailable.
func (c Capability) Provider() string {
	if c.gen == nil {
		return MockModel
	}
	if n, ok := c.gen.(interface{ Name() string }); ok {
		return n.Name()
	}
	return c.gen.Model()
}

// Model names the configured generator's model, or MockModel.
func (c Capability) Model() string {
	if c.gen == nil {
		return MockModel
	}
	return c.gen.Model()
}
