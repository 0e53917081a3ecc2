package fdsn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/station-dayplot/internal/seismic"
)

// DefaultEventBaseURL is the EMSC FDSN host.
const DefaultEventBaseURL = "https://www.seismicportal.eu"

const eventPath = "/fdsnws/event/1/query"

// EventClient queries an FDSN event service in its text format.
type EventClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewEventClient creates a client for baseURL (DefaultEventBaseURL when empty).
func NewEventClient(client *http.Client, baseURL string) *EventClient {
	if baseURL == "" {
		baseURL = DefaultEventBaseURL
	}
	return &EventClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuit("fdsn-event"),
	}
}

// Events returns the catalogue entries in q, oldest first. An empty
// catalogue is not an error.
func (c *EventClient) Events(ctx context.Context, q seismic.EventQuery) ([]seismic.Event, error) {
	values := url.Values{}
	values.Set("starttime", q.Start.UTC().Format(queryTimeLayout))
	values.Set("endtime", q.End.UTC().Format(queryTimeLayout))
	values.Set("minmagnitude", strconv.FormatFloat(q.MinMagnitude, 'f', -1, 64))
	values.Set("orderby", "time-asc")
	values.Set("format", "text")

	u := fmt.Sprintf("%s%s?%s", c.baseURL, eventPath, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := doRequest(ctx, c.client, c.circuit, req)
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return ParseEventText(resp.Body)
}

// ParseEventText decodes the pipe-delimited FDSN event text format:
// EventID|Time|Latitude|Longitude|Depth/km|Author|Catalog|Contributor|ContributorID|MagType|Magnitude|MagAuthor|EventLocationName
func ParseEventText(r io.Reader) ([]seismic.Event, error) {
	sc := bufio.NewScanner(r)

	var events []seismic.Event
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cols := strings.Split(text, "|")
		if len(cols) < 11 {
			return nil, fmt.Errorf("line %d: expected at least 11 columns, got %d", line, len(cols))
		}
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}

		ts, err := parseTime(cols[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ev := seismic.Event{
			ID:      cols[0],
			Time:    ts,
			MagType: cols[9],
		}
		if ev.Latitude, err = parseFloat(cols[2]); err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		if ev.Longitude, err = parseFloat(cols[3]); err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		if ev.DepthKm, err = parseFloat(cols[4]); err != nil {
			return nil, fmt.Errorf("line %d: depth: %w", line, err)
		}
		if ev.Magnitude, err = parseFloat(cols[10]); err != nil {
			return nil, fmt.Errorf("line %d: magnitude: %w", line, err)
		}
		if len(cols) > 12 {
			ev.Region = cols[12]
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// parseFloat treats an empty column as zero; catalogues omit depth at times.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

var _ seismic.EventClient = (*EventClient)(nil)
