package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/klytics/sheetsight/internal/insight"
)

// Memory is a mutex-guarded in-process Store.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	charts   map[string]*Chart
	insights map[string]*insight.Record // keyed by user/dataset
	now      func() time.Time
}

// NewMemory returns an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		datasets: make(map[string]*Dataset),
		charts:   make(map[string]*Chart),
		insights: make(map[string]*insight.Record),
		now:      time.Now,
	}
}

func insightKey(userID, datasetID string) string { return userID + "/" + datasetID }

func (m *Memory) CreateDataset(_ context.Context, d *Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = m.now()
	}
	if d.ChartIDs == nil {
		d.ChartIDs = []string{}
	}
	m.datasets[d.ID] = d
	return nil
}

func (m *Memory) GetDataset(_ context.Context, userID, id string) (*Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.datasets[id]
	if !ok || d.UserID != userID {
		return nil, ErrNotFound
	}
	c := *d
	c.ChartIDs = append([]string(nil), d.ChartIDs...)
	return &c, nil
}

func (m *Memory) ListDatasets(_ context.Context, userID string) ([]*Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Dataset{}
	for _, d := range m.datasets {
		if d.UserID == userID {
			out = append(out, d.withoutRecords())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteDataset(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.datasets[id]
	if !ok || d.UserID != userID {
		return ErrNotFound
	}
	for cid, c := range m.charts {
		if c.DatasetID == id {
			delete(m.charts, cid)
		}
	}
	delete(m.insights, insightKey(userID, id))
	delete(m.datasets, id)
	return nil
}

func (m *Memory) Usage(ctx context.Context, userID string) (*Usage, error) {
	list, err := m.ListDatasets(ctx, userID)
	if err != nil {
		return nil, err
	}
	u := &Usage{TotalFiles: len(list)}
	for _, d := range list {
		u.TotalSize += d.Size
	}
	if len(list) > 0 {
		u.Recent = list[0]
	}
	return u, nil
}

func (m *Memory) CreateChart(_ context.Context, c *Chart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.datasets[c.DatasetID]
	if !ok || d.UserID != c.UserID {
		return ErrNotFound
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}
	m.charts[c.ID] = c
	d.ChartIDs = append(d.ChartIDs, c.ID)
	return nil
}

func (m *Memory) GetChart(_ context.Context, userID, id string) (*Chart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.charts[id]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *Memory) ListCharts(_ context.Context, userID, datasetID string) ([]*Chart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Chart{}
	for _, c := range m.charts {
		if c.UserID == userID && (datasetID == "" || c.DatasetID == datasetID) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteChart(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.charts[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(m.charts, id)
	if d, ok := m.datasets[c.DatasetID]; ok {
		kept := d.ChartIDs[:0]
		for _, cid := range d.ChartIDs {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		d.ChartIDs = kept
	}
	return nil
}

func (m *Memory) FindInsight(_ context.Context, userID, datasetID string) (*insight.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.insights[insightKey(userID, datasetID)]
	if !ok {
		return nil, insight.ErrNotFound
	}
	return rec, nil
}

func (m *Memory) CreateInsight(_ context.Context, rec *insight.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := insightKey(rec.UserID, rec.DatasetID)
	if _, ok := m.insights[key]; ok {
		return insight.ErrDuplicate
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.insights[key] = rec
	return nil
}

func (m *Memory) AttachInsight(_ context.Context, datasetID, insightID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.datasets[datasetID]
	if !ok {
		return ErrNotFound
	}
	d.InsightID = insightID
	return nil
}

func (m *Memory) ListInsights(_ context.Context, userID string) ([]*insight.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*insight.Record{}
	for _, rec := range m.insights {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
