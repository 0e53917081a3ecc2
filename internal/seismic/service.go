package seismic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/i474232898/station-dayplot/internal/common"
	"github.com/i474232898/station-dayplot/internal/logger"
	"github.com/i474232898/station-dayplot/internal/stations"
	"github.com/i474232898/station-dayplot/internal/timewindow"
)

// FailurePolicy decides what a run does after a station fails.
type FailurePolicy string

const (
	// FailFast aborts the run on the first station error.
	FailFast FailurePolicy = "fail-fast"
	// ContinueOnError logs the error, moves on and returns every error at the end.
	ContinueOnError FailurePolicy = "continue"
)

// ParseFailurePolicy maps a config string onto a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case FailFast, ContinueOnError:
		return FailurePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (allowed: fail-fast, continue)", s)
	}
}

// ErrEmptyStream is returned when a fetch yields no samples.
var ErrEmptyStream = errors.New("waveform stream is empty")

// RunContext is the resolved invocation shared by every station of a run.
type RunContext struct {
	ConfigPath string
	Window     timewindow.Window
	DestDir    string // always ends with "/"
	Start      time.Time
	End        time.Time
}

// NewRunContext fixes the window so that it ends at now (in UTC).
func NewRunContext(configPath string, window timewindow.Window, destDir string, now time.Time) RunContext {
	start, end := window.Range(now.UTC())
	return RunContext{
		ConfigPath: configPath,
		Window:     window,
		DestDir:    common.WithTrailingSlash(destDir),
		Start:      start,
		End:        end,
	}
}

// PlotRequest is everything needed to plot one station.
type PlotRequest struct {
	Record   stations.StationRecord
	Start    time.Time
	End      time.Time
	Interval time.Duration
	Title    string
	Events   EventRequest
	BaseName string // artifact name without extension
}

// Service runs the fetch, filter, render cycle over a list of stations.
type Service struct {
	waveforms WaveformClient
	filter    Filter
	renderer  Renderer
	settings  PlotSettings
	policy    FailurePolicy
	recorder  OutcomeRecorder
	log       *logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithPolicy sets the failure policy. FailFast is the default.
func WithPolicy(p FailurePolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithSettings replaces DefaultPlotSettings.
func WithSettings(ps PlotSettings) Option {
	return func(s *Service) { s.settings = ps }
}

// WithRecorder reports every station outcome to r.
func WithRecorder(r OutcomeRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger; a no-op logger is used otherwise.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a new Service.
func NewService(waveforms WaveformClient, filter Filter, renderer Renderer, opts ...Option) *Service {
	s := &Service{
		waveforms: waveforms,
		filter:    filter,
		renderer:  renderer,
		settings:  DefaultPlotSettings(),
		policy:    FailFast,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EventsFor returns the annotation request for a window. Year-long plots
// get none.
func (s *Service) EventsFor(window timewindow.Window) EventRequest {
	if window.Keyword == timewindow.Year {
		return EventRequest{}
	}
	return MinMagnitudeRequest(s.settings.MinMagnitude)
}

// BuildRequest composes the title and event request for one record.
func (s *Service) BuildRequest(rc RunContext, rec stations.StationRecord) PlotRequest {
	return PlotRequest{
		Record:   rec,
		Start:    rc.Start,
		End:      rc.End,
		Interval: rc.Window.Interval,
		Title:    rec.Title + "\n" + FormatTime(rc.Start) + " to " + FormatTime(rc.End),
		Events:   s.EventsFor(rc.Window),
		BaseName: baseName(rec.Title, rc.Window.Keyword),
	}
}

func baseName(title, window string) string {
	return common.SanitizeFileName(title) + "_" + window
}

// uniqueBaseNames returns one artifact name per record. Titles that sanitize
// to the same name get a numeric suffix in record order, so no two records
// share an output file.
func uniqueBaseNames(records []stations.StationRecord, window string) []string {
	names := make([]string, len(records))
	taken := make(map[string]bool, len(records))
	for i, rec := range records {
		names[i] = baseName(rec.Title, window)
	}
	for i, name := range names {
		if !taken[name] {
			taken[name] = true
			continue
		}
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s_%d", name, n)
			if !taken[candidate] {
				names[i] = candidate
				taken[candidate] = true
				break
			}
		}
	}
	return names
}

// Run processes records in order. Under FailFast the first error stops the
// run; under ContinueOnError all errors are combined and returned.
func (s *Service) Run(ctx context.Context, rc RunContext, records []stations.StationRecord) error {
	runID := uuid.NewString()
	s.log.Infow("starting plot run",
		"run", runID,
		"window", rc.Window.Keyword,
		"start", FormatTime(rc.Start),
		"end", FormatTime(rc.End),
		"stations", len(records),
	)

	names := uniqueBaseNames(records, rc.Window.Keyword)

	var errs error
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		req := s.BuildRequest(rc, rec)
		if req.BaseName != names[i] {
			s.log.Warnw("output name taken by an earlier station; adding suffix",
				"station", rec.Title, "name", names[i])
			req.BaseName = names[i]
		}
		file, err := s.Plot(ctx, rc, req)
		s.record(runID, rc, req, file, err)

		if err != nil {
			err = fmt.Errorf("station [%s]: %w", rec.Title, err)
			if s.policy != ContinueOnError {
				return err
			}
			s.log.Errorw("station failed; continuing", "station", rec.Title, "err", err)
			errs = multierr.Append(errs, err)
			continue
		}
		s.log.Infow("plot written", "station", rec.Title, "file", file)
	}

	s.log.Infow("plot run finished", "run", runID, "failed", len(multierr.Errors(errs)))
	return errs
}

// Plot fetches, filters and renders a single request.
func (s *Service) Plot(ctx context.Context, rc RunContext, req PlotRequest) (string, error) {
	rec := req.Record
	st, err := s.waveforms.Fetch(ctx, WaveformQuery{
		Network:  rec.Network(),
		Station:  rec.Station(),
		Location: rec.Location(),
		Channel:  rec.Channel(),
		Start:    req.Start,
		End:      req.End,
	})
	if err != nil {
		return "", fmt.Errorf("fetch waveforms: %w", err)
	}
	if st.Empty() {
		return "", ErrEmptyStream
	}
	s.log.Debugw("waveforms fetched", "station", rec.Title, "traces", len(st))

	st, err = s.filter.Apply(st, s.settings.Filter)
	if err != nil {
		return "", fmt.Errorf("filter waveforms: %w", err)
	}

	name := req.BaseName
	if name == "" {
		name = baseName(rec.Title, rc.Window.Keyword)
	}

	colors := make([]string, len(s.settings.Palette))
	copy(colors, s.settings.Palette)

	file, err := s.renderer.Render(ctx, st, PlotOptions{
		Title:                req.Title,
		Start:                req.Start,
		End:                  req.End,
		Interval:             req.Interval,
		Colors:               colors,
		VerticalScalingRange: s.settings.VerticalScalingRange,
		RightVerticalLabels:  s.settings.RightVerticalLabels,
		OneTickPerLine:       s.settings.OneTickPerLine,
		ShowYUTCLabel:        s.settings.ShowYUTCLabel,
		Events:               req.Events,
		DestDir:              rc.DestDir,
		BaseName:             name,
	})
	if err != nil {
		return "", fmt.Errorf("render dayplot: %w", err)
	}
	return file, nil
}

func (s *Service) record(runID string, rc RunContext, req PlotRequest, file string, err error) {
	if s.recorder == nil {
		return
	}
	o := Outcome{
		RunID:      runID,
		Station:    req.Record.Title,
		Window:     rc.Window.Keyword,
		Start:      req.Start,
		End:        req.End,
		File:       file,
		FinishedAt: time.Now().UTC(),
	}
	if err != nil {
		o.Err = err.Error()
	}
	s.recorder.SaveOutcome(o)
}
