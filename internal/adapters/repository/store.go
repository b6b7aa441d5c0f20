// Package repository holds the latest payload of every kind received from
// the feed and triggers aggregation once the required kinds have arrived.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/internal/domain/types"
	"github.com/okian/bandboard/pkg/logger"
	"github.com/okian/bandboard/pkg/metrics"
)

// Snapshot is a point-in-time copy of the store's slots.
type Snapshot struct {
	Scores             []model.CompetitionRecord
	Adjudication       any
	Comments           []model.Comment
	HistoricalComments []model.Comment
	Initialized        map[types.Kind]bool
}

// AggregateFunc is invoked after each applied payload once the store is ready.
type AggregateFunc func(ctx context.Context, snap Snapshot)

// Store accepts payloads and exposes the current data set.
type Store interface {
	// Apply replaces the slot for p.Kind with p's decoded data.
	Apply(ctx context.Context, p model.Payload) error
	// Ready reports whether scores and adjudication have both been received.
	Ready() bool
	// Snapshot returns a copy of every slot.
	Snapshot() Snapshot
}

// DataStore is the in-memory Store used by feed consumers.
type DataStore struct {
	mu                 sync.RWMutex
	scores             []model.CompetitionRecord
	adjudication       any
	comments           []model.Comment
	historicalComments []model.Comment
	initialized        map[types.Kind]bool

	aggregate AggregateFunc
	logger    logger.Logger
}

// NewDataStore creates an empty store.
func NewDataStore(opts ...Option) *DataStore {
	s := &DataStore{initialized: make(map[types.Kind]bool, len(types.Kinds()))}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("repository")
	}
	return s
}

// Apply decodes p and fully replaces the matching slot. Unknown kinds and
// undecodable data leave the store unchanged.
func (s *DataStore) Apply(ctx context.Context, p model.Payload) error {
	if !p.Kind.Valid() {
		metrics.RecordErrorByComponent("repository", "unknown_kind")
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}

	s.mu.Lock()
	switch p.Kind {
	case types.KindScores:
		var records []model.CompetitionRecord
		if err := json.Unmarshal(p.Data, &records); err != nil {
			s.mu.Unlock()
			return decodeError(p.Kind, err)
		}
		s.scores = s.keepWellFormed(ctx, records)
	case types.KindAdjudication:
		var v any
		if err := json.Unmarshal(p.Data, &v); err != nil {
			s.mu.Unlock()
			return decodeError(p.Kind, err)
		}
		s.adjudication = v
	case types.KindComments, types.KindHistoricalComments:
		var comments []model.Comment
		if err := json.Unmarshal(p.Data, &comments); err != nil {
			s.mu.Unlock()
			return decodeError(p.Kind, err)
		}
		if p.Kind == types.KindComments {
			s.comments = comments
		} else {
			s.historicalComments = comments
		}
	}
	s.initialized[p.Kind] = true
	ready := s.readyLocked()
	s.mu.Unlock()

	metrics.RecordStoreApplied(p.Kind.String())
	s.logger.Debug(ctx, "payload applied", logger.String("kind", p.Kind.String()), logger.Bool("ready", ready))

	if !ready {
		s.logger.Debug(ctx, "waiting for required data")
		return nil
	}
	if s.aggregate != nil {
		s.aggregate(ctx, s.Snapshot())
	}
	return nil
}

// keepWellFormed drops rows that fail validation, i.e. do not carry exactly
// model.CellCount cells.
func (s *DataStore) keepWellFormed(ctx context.Context, records []model.CompetitionRecord) []model.CompetitionRecord {
	dropped := 0
	for i := range records {
		kept := records[i].Rows[:0]
		for _, r := range records[i].Rows {
			if err := r.Validate(); err != nil {
				dropped++
				s.logger.Warn(ctx, "skipping row with invalid cell count",
					logger.String("school", r.School),
					logger.String("date", records[i].DateStr),
					logger.Int("cells", len(r.Cells)),
				)
				continue
			}
			kept = append(kept, r)
		}
		records[i].Rows = kept
	}
	if dropped > 0 {
		metrics.RecordStoreRowsDropped(dropped)
	}
	return records
}

// Ready reports whether scores and adjudication have both been received.
func (s *DataStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readyLocked()
}

func (s *DataStore) readyLocked() bool {
	return s.initialized[types.KindScores] && s.initialized[types.KindAdjudication]
}

// Snapshot returns a copy of the current slots. Nested values are shared and
// must be treated as read-only.
func (s *DataStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flags := make(map[types.Kind]bool, len(s.initialized))
	for k, v := range s.initialized {
		flags[k] = v
	}
	return Snapshot{
		Scores:             append([]model.CompetitionRecord(nil), s.scores...),
		Adjudication:       s.adjudication,
		Comments:           append([]model.Comment(nil), s.comments...),
		HistoricalComments: append([]model.Comment(nil), s.historicalComments...),
		Initialized:        flags,
	}
}

func decodeError(kind types.Kind, err error) error {
	metrics.RecordErrorByComponent("repository", "decode")
	return fmt.Errorf("%w: %s: %w", ErrDecode, kind, err)
}
