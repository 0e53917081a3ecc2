package seismic

import (
	"math"
	"time"

	"github.com/i474232898/station-dayplot/internal/stations"
)

// TimeLayout renders instants the way plot titles show them.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime formats t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Trace is one contiguous, evenly sampled run of waveform data.
type Trace struct {
	Network    string
	Station    string
	Location   string
	Channel    string
	StartTime  time.Time // always UTC
	SampleRate float64   // samples per second
	Samples    []float64
}

// ID returns the NET.STA.LOC.CHA identifier.
func (t Trace) ID() string {
	return t.Network + "." + t.Station + "." + t.Location + "." + t.Channel
}

// TimeAt returns the timestamp of sample i.
func (t Trace) TimeAt(i int) time.Time {
	if t.SampleRate <= 0 {
		return t.StartTime
	}
	return t.StartTime.Add(time.Duration(math.Round(float64(i) * float64(time.Second) / t.SampleRate)))
}

// EndTime returns the timestamp of the last sample.
func (t Trace) EndTime() time.Time {
	if len(t.Samples) == 0 {
		return t.StartTime
	}
	return t.TimeAt(len(t.Samples) - 1)
}

// Stream is an ordered set of traces, as returned by a waveform service.
type Stream []Trace

// Empty reports whether the stream carries no samples at all.
func (s Stream) Empty() bool {
	for _, tr := range s {
		if len(tr.Samples) > 0 {
			return false
		}
	}
	return true
}

// WaveformQuery selects data from a waveform service. Each code may be a
// single value or a list; list values are combined with every other code.
type WaveformQuery struct {
	Network  stations.FieldValue
	Station  stations.FieldValue
	Location stations.FieldValue
	Channel  stations.FieldValue
	Start    time.Time
	End      time.Time
}

// Event is a catalogued earthquake.
type Event struct {
	ID        string
	Time      time.Time
	Latitude  float64
	Longitude float64
	DepthKm   float64
	Magnitude float64
	MagType   string
	Region    string
}

// EventRequest selects the events annotated on a plot. The zero value is
// empty and disables annotation.
type EventRequest struct {
	MinMagnitude *float64
}

// MinMagnitudeRequest builds a request for events of at least m.
func MinMagnitudeRequest(m float64) EventRequest {
	return EventRequest{MinMagnitude: &m}
}

// IsEmpty reports whether no filter is set.
func (r EventRequest) IsEmpty() bool {
	return r.MinMagnitude == nil
}

// EventQuery is what an EventClient is asked for.
type EventQuery struct {
	Start        time.Time
	End          time.Time
	MinMagnitude float64
}

// FilterParams describe a filter applied to every trace of a stream.
type FilterParams struct {
	Type    string
	Freq    float64 // corner frequency in Hz
	Corners int
}

// PlotOptions configure one dayplot render.
type PlotOptions struct {
	Title                string
	Start                time.Time
	End                  time.Time
	Interval             time.Duration
	Colors               []string
	VerticalScalingRange float64
	RightVerticalLabels  bool
	OneTickPerLine       bool
	ShowYUTCLabel        bool
	Events               EventRequest

	// DestDir ends with "/"; BaseName has no extension.
	DestDir  string
	BaseName string
}

// PlotSettings are the fixed knobs applied to every station. They are
// passed into the Service so tests can swap them.
type PlotSettings struct {
	Palette              []string
	Filter               FilterParams
	VerticalScalingRange float64
	MinMagnitude         float64
	RightVerticalLabels  bool
	OneTickPerLine       bool
	ShowYUTCLabel        bool
}

// DefaultPlotSettings returns the production settings.
func DefaultPlotSettings() PlotSettings {
	return PlotSettings{
		Palette:              []string{"black", "red", "blue", "green"},
		Filter:               FilterParams{Type: "lowpass", Freq: 0.05, Corners: 2},
		VerticalScalingRange: 5e3,
		MinMagnitude:         6.5,
		RightVerticalLabels:  false,
		OneTickPerLine:       true,
		ShowYUTCLabel:        true,
	}
}

// Outcome records how one station fared in a run.
type Outcome struct {
	RunID      string    `json:"runId"`
	Station    string    `json:"station"`
	Window     string    `json:"window"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	File       string    `json:"file,omitempty"`
	Err        string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}

// OK reports whether the station was plotted.
func (o Outcome) OK() bool {
	return o.Err == ""
}
