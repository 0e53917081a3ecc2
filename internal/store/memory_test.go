package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/station-dayplot/internal/seismic"
)

func outcome(station string, at time.Time) seismic.Outcome {
	return seismic.Outcome{RunID: at.String(), Station: station, Window: "day", FinishedAt: at}
}

func TestSaveAndGetLatest(t *testing.T) {
	s := NewMemoryStore(0, 0)
	now := time.Now().UTC()

	_, err := s.GetLatest("STA1")
	assert.ErrorIs(t, err, ErrNotFound)

	s.SaveOutcome(outcome("STA1", now.Add(-time.Minute)))
	s.SaveOutcome(outcome("STA1", now))

	got, err := s.GetLatest("STA1")
	require.NoError(t, err)
	assert.Equal(t, now, got.FinishedAt)
	assert.Equal(t, []string{"STA1"}, s.Stations())
}

func TestRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	now := time.Now().UTC()
	for i := 3; i >= 0; i-- {
		s.SaveOutcome(outcome("STA1", now.Add(-time.Duration(i)*time.Minute)))
	}

	got, err := s.GetRange("STA1", now.Add(-time.Hour), now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, now.Add(-time.Minute), got[0].FinishedAt)
}

func TestRetentionByAge(t *testing.T) {
	s := NewMemoryStore(0, time.Hour)
	now := time.Now().UTC()
	s.SaveOutcome(outcome("STA1", now.Add(-2*time.Hour)))
	s.SaveOutcome(outcome("STA1", now))

	got, err := s.GetRange("STA1", now.Add(-3*time.Hour), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, now, got[0].FinishedAt)
}

func TestGetRangeOutsideWindow(t *testing.T) {
	s := NewMemoryStore(0, 0)
	now := time.Now().UTC()
	s.SaveOutcome(outcome("STA1", now))

	_, err := s.GetRange("STA1", now.Add(time.Minute), now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}
