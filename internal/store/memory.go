package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/station-dayplot/internal/seismic"
)

var (
	// ErrNotFound is returned when no outcome is recorded for a station.
	ErrNotFound = errors.New("no plot outcomes for station")
)

// OutcomeHistory holds the outcomes of one station, oldest first.
type OutcomeHistory struct {
	Outcomes []seismic.Outcome
}

// MemoryStore is a concurrency-safe in-memory record of plot outcomes.
type MemoryStore struct {
	mu sync.RWMutex

	// key: station title
	data map[string]*OutcomeHistory

	maxHistory int           // max outcomes per station
	maxAge     time.Duration // max age of an outcome
}

// NewMemoryStore creates a new MemoryStore. Limits <= 0 mean unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*OutcomeHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveOutcome appends an outcome and enforces retention.
func (s *MemoryStore) SaveOutcome(o seismic.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[o.Station]
	if !ok {
		history = &OutcomeHistory{}
		s.data[o.Station] = history
	}

	history.Outcomes = append(history.Outcomes, o)

	if s.maxHistory > 0 && len(history.Outcomes) > s.maxHistory {
		over := len(history.Outcomes) - s.maxHistory
		history.Outcomes = history.Outcomes[over:]
	}

	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Outcomes); i++ {
			if !history.Outcomes[i].FinishedAt.Before(cutoff) {
				break
			}
		}
		history.Outcomes = history.Outcomes[i:]
	}
}

// GetLatest returns the most recent outcome for a station.
func (s *MemoryStore) GetLatest(station string) (seismic.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[station]
	if !ok || len(history.Outcomes) == 0 {
		return seismic.Outcome{}, ErrNotFound
	}
	return history.Outcomes[len(history.Outcomes)-1], nil
}

// GetRange returns the outcomes of a station finished between from and to (inclusive).
func (s *MemoryStore) GetRange(station string, from, to time.Time) ([]seismic.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[station]
	if !ok || len(history.Outcomes) == 0 {
		return nil, ErrNotFound
	}

	var result []seismic.Outcome
	for _, o := range history.Outcomes {
		if !o.FinishedAt.Before(from) && !o.FinishedAt.After(to) {
			result = append(result, o)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Stations lists every station with at least one outcome.
func (s *MemoryStore) Stations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name, h := range s.data {
		if len(h.Outcomes) > 0 {
			names = append(names, name)
		}
	}
	return names
}

var _ seismic.OutcomeRecorder = (*MemoryStore)(nil)
