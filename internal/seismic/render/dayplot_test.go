package render

import (
	"context"
	"errors"
	"image/png"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/station-dayplot/internal/seismic"
)

type fakeEvents struct {
	calls  []seismic.EventQuery
	events []seismic.Event
	err    error
}

func (f *fakeEvents) Events(_ context.Context, q seismic.EventQuery) ([]seismic.Event, error) {
	f.calls = append(f.calls, q)
	return f.events, f.err
}

var start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func sineStream(hours int, rate float64) seismic.Stream {
	n := int(float64(hours) * 3600 * rate)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 2000 * math.Sin(float64(i)/50)
	}
	return seismic.Stream{{
		Network: "IU", Station: "ANMO", Location: "00", Channel: "BHZ",
		StartTime: start, SampleRate: rate, Samples: samples,
	}}
}

func options(t *testing.T) seismic.PlotOptions {
	return seismic.PlotOptions{
		Title:                "STA1\n2024-03-01T00:00:00.000000Z to 2024-03-02T00:00:00.000000Z",
		Start:                start,
		End:                  start.Add(24 * time.Hour),
		Interval:             time.Hour,
		Colors:               []string{"black", "red", "blue", "green"},
		VerticalScalingRange: 5000,
		OneTickPerLine:       true,
		ShowYUTCLabel:        true,
		Events:               seismic.MinMagnitudeRequest(6.5),
		DestDir:              t.TempDir() + "/",
		BaseName:             "STA1_day",
	}
}

func TestRenderWritesPNG(t *testing.T) {
	ev := &fakeEvents{events: []seismic.Event{
		{ID: "a", Time: start.Add(90 * time.Minute), Magnitude: 7.1, Region: "SOUTHERN ALASKA"},
		{ID: "outside", Time: start.Add(-time.Hour), Magnitude: 8},
	}}
	opts := options(t)

	path, err := NewDayPlot(ev, nil, 800).Render(context.Background(), sineStream(24, 0.5), opts)
	require.NoError(t, err)
	assert.Equal(t, opts.DestDir+"STA1_day.png", path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())

	require.Len(t, ev.calls, 1)
	assert.Equal(t, 6.5, ev.calls[0].MinMagnitude)
	assert.Equal(t, opts.Start, ev.calls[0].Start)
}

func TestRenderSkipsEventsForEmptyRequest(t *testing.T) {
	ev := &fakeEvents{}
	opts := options(t)
	opts.Events = seismic.EventRequest{}
	opts.RightVerticalLabels = true
	opts.OneTickPerLine = false

	_, err := NewDayPlot(ev, nil, 0).Render(context.Background(), sineStream(6, 0.5), opts)
	require.NoError(t, err)
	assert.Empty(t, ev.calls)
}

func TestRenderSurvivesEventLookupFailure(t *testing.T) {
	ev := &fakeEvents{err: errors.New("catalogue down")}
	_, err := NewDayPlot(ev, nil, 0).Render(context.Background(), sineStream(3, 0.5), options(t))
	require.NoError(t, err)
}

func TestRenderRejectsEmptyData(t *testing.T) {
	opts := options(t)
	_, err := NewDayPlot(nil, nil, 0).Render(context.Background(), seismic.Stream{}, opts)
	assert.ErrorIs(t, err, errNoPoints)

	opts.Interval = 0
	_, err = NewDayPlot(nil, nil, 0).Render(context.Background(), sineStream(1, 1), opts)
	assert.ErrorIs(t, err, errNoLines)
}

func TestDecimateKeepsExtremes(t *testing.T) {
	pts := make([]point, 10000)
	for i := range pts {
		pts[i] = point{x: float64(i)}
	}
	pts[1234].y = 9
	pts[8765].y = -9

	out := decimate(pts, 100)
	assert.LessOrEqual(t, len(out), 100)

	var hi, lo float64
	for _, p := range out {
		hi = math.Max(hi, p.y)
		lo = math.Min(lo, p.y)
	}
	assert.Equal(t, 9.0, hi)
	assert.Equal(t, -9.0, lo)

	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1].x, out[i].x)
	}
}

func TestLineTicks(t *testing.T) {
	opts := options(t)
	ticks := lineTicks(opts, 24, func(s, _ time.Time) time.Time { return s })
	require.Len(t, ticks, 24)
	assert.Equal(t, -23.0, ticks[0].Value)
	assert.Equal(t, "23:00", ticks[0].Label)
	assert.Equal(t, "00:00", ticks[23].Label)

	opts.OneTickPerLine = false
	assert.Len(t, lineTicks(opts, 24, func(s, _ time.Time) time.Time { return s }), 6)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, parseColor("k"), parseColor("black"))
	assert.Equal(t, parseColor("#ff0000"), parseColor("red"))
	assert.Equal(t, uint8(255), parseColor("blue").B)
}
