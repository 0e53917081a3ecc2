package seismic

import (
	"context"
)

// WaveformClient abstracts a remote waveform service (e.g. IRIS).
type WaveformClient interface {
	Fetch(ctx context.Context, q WaveformQuery) (Stream, error)
}

// EventClient abstracts an earthquake catalogue service.
type EventClient interface {
	Events(ctx context.Context, q EventQuery) ([]Event, error)
}

// Filter applies a signal filter to every trace of a stream.
type Filter interface {
	Apply(st Stream, p FilterParams) (Stream, error)
}

// Renderer draws a stream and writes the artifact, returning its path.
type Renderer interface {
	Render(ctx context.Context, st Stream, opts PlotOptions) (string, error)
}

// OutcomeRecorder receives one Outcome per processed station.
type OutcomeRecorder interface {
	SaveOutcome(o Outcome)
}
