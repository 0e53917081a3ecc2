// Package render draws dayplots: a long waveform window cut into
// fixed-length lines stacked top to bottom.
package render

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/station-dayplot/internal/logger"
	"github.com/i474232898/station-dayplot/internal/seismic"
)

const (
	defaultWidth     = 1600
	maxPointsPerLine = 2000
	lineHeightPx     = 28
	maxLabelRunes    = 40
)

var (
	errNoLines  = errors.New("window holds no complete dayplot line")
	errNoPoints = errors.New("no samples fall inside the plot window")
)

// DayPlot renders streams to PNG files using go-chart.
type DayPlot struct {
	events seismic.EventClient
	log    *logger.Logger
	width  int
}

// NewDayPlot creates a renderer. events may be nil, in which case no
// annotations are drawn. width <= 0 selects the default.
func NewDayPlot(events seismic.EventClient, log *logger.Logger, width int) *DayPlot {
	if width <= 0 {
		width = defaultWidth
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DayPlot{events: events, log: log, width: width}
}

// Render draws st and writes <DestDir><BaseName>.png.
func (d *DayPlot) Render(ctx context.Context, st seismic.Stream, opts seismic.PlotOptions) (string, error) {
	if opts.Interval <= 0 || !opts.End.After(opts.Start) {
		return "", errNoLines
	}
	lines := int(math.Ceil(float64(opts.End.Sub(opts.Start)) / float64(opts.Interval)))
	if lines == 0 {
		return "", errNoLines
	}

	palette := make([]drawing.Color, 0, len(opts.Colors))
	for _, name := range opts.Colors {
		palette = append(palette, parseColor(name))
	}
	if len(palette) == 0 {
		palette = append(palette, drawing.ColorFromHex("000000"))
	}

	series := d.lineSeries(st, opts, palette)
	if len(series) == 0 {
		return "", errNoPoints
	}

	yRange := &chart.ContinuousRange{Min: -float64(lines), Max: 1}
	graph := chart.Chart{
		Title:  strings.ReplaceAll(strings.TrimSpace(opts.Title), "\n", "   "),
		Width:  d.width,
		Height: max(400, 120+lines*lineHeightPx),
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "time in minutes",
			Range:          &chart.ContinuousRange{Min: 0, Max: opts.Interval.Minutes()},
			ValueFormatter: minutesFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "UTC",
			Range: yRange,
			Ticks: lineTicks(opts, lines, func(start, _ time.Time) time.Time { return start }),
		},
		Series: series,
	}

	if opts.RightVerticalLabels {
		graph.YAxisSecondary = chart.YAxis{
			Range: yRange,
			Ticks: lineTicks(opts, lines, func(_, end time.Time) time.Time { return end }),
		}
		mirror := series[0].(chart.ContinuousSeries)
		mirror.Name += " (right)"
		mirror.YAxis = chart.YAxisSecondary
		graph.Series = append(graph.Series, mirror)
	}

	if ann, ok := d.eventAnnotations(ctx, opts); ok {
		graph.Series = append(graph.Series, ann)
	}

	path := filepath.Join(opts.DestDir, opts.BaseName+".png")
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "unable to create file %s", path)
	}

	if err := graph.Render(chart.PNG, file); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", errors.Wrapf(err, "unable to render dayplot %s", path)
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrapf(err, "unable to close file %s", path)
	}
	return path, nil
}

type point struct{ x, y float64 }

// lineSeries cuts every trace into interval-long lines. Line i is drawn
// around y = -i, with amplitudes divided by the vertical scaling range.
func (d *DayPlot) lineSeries(st seismic.Stream, opts seismic.PlotOptions, palette []drawing.Color) []chart.Series {
	scale := opts.VerticalScalingRange
	if scale <= 0 {
		scale = 1
	}

	var out []chart.Series
	for _, tr := range st {
		if len(tr.Samples) == 0 {
			continue
		}
		mean := 0.0
		for _, v := range tr.Samples {
			mean += v
		}
		mean /= float64(len(tr.Samples))

		perLine := make(map[int][]point)
		for i, v := range tr.Samples {
			ts := tr.TimeAt(i)
			if ts.Before(opts.Start) || !ts.Before(opts.End) {
				continue
			}
			offset := ts.Sub(opts.Start)
			line := int(offset / opts.Interval)
			x := (offset - time.Duration(line)*opts.Interval).Minutes()
			perLine[line] = append(perLine[line], point{x: x, y: -float64(line) + (v-mean)/scale})
		}

		keys := make([]int, 0, len(perLine))
		for k := range perLine {
			keys = append(keys, k)
		}
		sort.Ints(keys)

		for _, line := range keys {
			pts := decimate(perLine[line], maxPointsPerLine)
			if len(pts) < 2 {
				continue
			}
			xs := make([]float64, len(pts))
			ys := make([]float64, len(pts))
			for i, p := range pts {
				xs[i], ys[i] = p.x, p.y
			}
			out = append(out, chart.ContinuousSeries{
				Name: fmt.Sprintf("%s line %d", tr.ID(), line),
				Style: chart.Style{
					StrokeColor: palette[line%len(palette)],
					StrokeWidth: 1,
				},
				XValues: xs,
				YValues: ys,
			})
		}
	}
	return out
}

// decimate keeps the min and max of equally sized buckets so peaks survive.
func decimate(pts []point, limit int) []point {
	if len(pts) <= limit || limit < 2 {
		return pts
	}
	buckets := limit / 2
	size := int(math.Ceil(float64(len(pts)) / float64(buckets)))

	out := make([]point, 0, limit)
	for start := 0; start < len(pts); start += size {
		end := min(start+size, len(pts))
		lo, hi := start, start
		for i := start + 1; i < end; i++ {
			if pts[i].y < pts[lo].y {
				lo = i
			}
			if pts[i].y > pts[hi].y {
				hi = i
			}
		}
		if lo == hi {
			out = append(out, pts[lo])
			continue
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		out = append(out, pts[lo], pts[hi])
	}
	return out
}

// lineTicks labels line i at y = -i; pick chooses the line start or end.
func lineTicks(opts seismic.PlotOptions, lines int, pick func(start, end time.Time) time.Time) []chart.Tick {
	step := 1
	if !opts.OneTickPerLine {
		step = 4
	}
	layout := "15:04"
	if opts.End.Sub(opts.Start) > 24*time.Hour {
		layout = "01-02 15:04"
	}

	var ticks []chart.Tick
	for i := lines - 1; i >= 0; i-- {
		if i%step != 0 {
			continue
		}
		start := opts.Start.Add(time.Duration(i) * opts.Interval)
		label := (time.Duration(i) * opts.Interval).String()
		if opts.ShowYUTCLabel {
			label = pick(start, start.Add(opts.Interval)).UTC().Format(layout)
		}
		ticks = append(ticks, chart.Tick{Value: -float64(i), Label: label})
	}
	return ticks
}

// eventAnnotations resolves the event request. A failed lookup is logged and
// the plot is drawn without markers.
func (d *DayPlot) eventAnnotations(ctx context.Context, opts seismic.PlotOptions) (chart.AnnotationSeries, bool) {
	if d.events == nil || opts.Events.IsEmpty() {
		return chart.AnnotationSeries{}, false
	}

	events, err := d.events.Events(ctx, seismic.EventQuery{
		Start:        opts.Start,
		End:          opts.End,
		MinMagnitude: *opts.Events.MinMagnitude,
	})
	if err != nil {
		d.log.Warnw("event lookup failed; plotting without annotations", "err", err)
		return chart.AnnotationSeries{}, false
	}

	var values []chart.Value2
	for _, ev := range events {
		if ev.Time.Before(opts.Start) || !ev.Time.Before(opts.End) {
			continue
		}
		offset := ev.Time.Sub(opts.Start)
		line := int(offset / opts.Interval)
		values = append(values, chart.Value2{
			XValue: (offset - time.Duration(line)*opts.Interval).Minutes(),
			YValue: -float64(line),
			Label:  eventLabel(ev),
		})
	}
	if len(values) == 0 {
		return chart.AnnotationSeries{}, false
	}
	return chart.AnnotationSeries{Name: "events", Annotations: values}, true
}

func eventLabel(ev seismic.Event) string {
	label := fmt.Sprintf("M%.1f %s", ev.Magnitude, ev.Region)
	label = strings.TrimSpace(label)
	if r := []rune(label); len(r) > maxLabelRunes {
		label = string(r[:maxLabelRunes-1]) + "…"
	}
	return label
}

func minutesFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprint(v)
}

var namedColors = map[string]string{
	"k": "000000", "black": "000000",
	"r": "ff0000", "red": "ff0000",
	"b": "0000ff", "blue": "0000ff",
	"g": "008000", "green": "008000",
}

// parseColor accepts the palette names above or a hex triplet.
func parseColor(name string) drawing.Color {
	key := strings.ToLower(strings.TrimSpace(name))
	if hex, ok := namedColors[key]; ok {
		return drawing.ColorFromHex(hex)
	}
	hex := strings.TrimPrefix(key, "#")
	if len(hex) == 6 || len(hex) == 3 {
		return drawing.ColorFromHex(hex)
	}
	return drawing.ColorFromHex("000000")
}

var _ seismic.Renderer = (*DayPlot)(nil)
