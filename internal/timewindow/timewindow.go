// Package timewindow maps the symbolic window keywords accepted on the
// command line to a lookback duration and a dayplot line interval.
package timewindow

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeWindow is returned for any keyword outside day, week, month
// and year.
var ErrInvalidTimeWindow = errors.New("invalid time window")

const (
	Day   = "day"
	Week  = "week"
	Month = "month"
	Year  = "year"
)

// Window is a resolved time window.
type Window struct {
	Keyword  string
	Offset   time.Duration // lookback from the end of the window
	Interval time.Duration // length of one dayplot line
}

// OffsetSeconds returns the lookback in whole seconds.
func (w Window) OffsetSeconds() int64 {
	return int64(w.Offset / time.Second)
}

// IntervalMinutes returns the line length in whole minutes.
func (w Window) IntervalMinutes() int {
	return int(w.Interval / time.Minute)
}

// Range returns the window ending at end.
func (w Window) Range(end time.Time) (start, stop time.Time) {
	return end.Add(-w.Offset), end
}

const day = 24 * time.Hour

var windows = map[string]Window{
	Day:   {Keyword: Day, Offset: day, Interval: 60 * time.Minute},
	Week:  {Keyword: Week, Offset: 7 * day, Interval: 4 * 60 * time.Minute},
	Month: {Keyword: Month, Offset: 30 * day, Interval: 1440 * time.Minute},
	Year:  {Keyword: Year, Offset: 365 * day, Interval: 10 * 1440 * time.Minute},
}

// Resolve returns the window for keyword.
func Resolve(keyword string) (Window, error) {
	w, ok := windows[keyword]
	if !ok {
		return Window{}, fmt.Errorf("%w: %q (allowed: day, week, month, year)", ErrInvalidTimeWindow, keyword)
	}
	return w, nil
}
