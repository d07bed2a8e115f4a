// Package statstore keeps the history of plan statistics messages so that
// past estimates and execution reports can be listed and compared.
package statstore

import (
	"context"
	"time"

	"github.com/kilianp07/auvplan/core/model"
)

// Query selects statistics records. Zero fields match everything.
type Query struct {
	PlanID string
	// Type is "pre", "post" or empty.
	Type  string
	Start time.Time
	End   time.Time
	// Limit keeps only the most recent records when positive.
	Limit int
}

// Match reports whether rec satisfies q, ignoring Limit.
func (q Query) Match(rec model.PlanStatistics) bool {
	if q.PlanID != "" && rec.PlanID != q.PlanID {
		return false
	}
	if q.Type != "" && rec.Type.String() != q.Type {
		return false
	}
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	return true
}

// Store persists plan statistics and supports querying.
type Store interface {
	Append(ctx context.Context, rec model.PlanStatistics) error
	Query(ctx context.Context, q Query) ([]model.PlanStatistics, error)
	Close() error
}

func limit(res []model.PlanStatistics, n int) []model.PlanStatistics {
	if n > 0 && len(res) > n {
		return res[len(res)-n:]
	}
	return res
}

// Nop discards records and returns no history.
type Nop struct{}

func (Nop) Append(context.Context, model.PlanStatistics) error { return nil }
func (Nop) Query(context.Context, Query) ([]model.PlanStatistics, error) {
	return nil, nil
}
func (Nop) Close() error { return nil }
