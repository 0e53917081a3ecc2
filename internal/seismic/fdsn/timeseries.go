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
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/station-dayplot/internal/seismic"
)

// DefaultWaveformBaseURL is the IRIS web-services host.
const DefaultWaveformBaseURL = "https://service.iris.edu"

const timeseriesPath = "/irisws/timeseries/1/query"

// TimeseriesClient fetches waveforms from the IRIS timeseries service in
// its plain-text SLIST form.
type TimeseriesClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewTimeseriesClient creates a client for baseURL (DefaultWaveformBaseURL
// when empty).
func NewTimeseriesClient(client *http.Client, baseURL string) *TimeseriesClient {
	if baseURL == "" {
		baseURL = DefaultWaveformBaseURL
	}
	return &TimeseriesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuit("iris-timeseries"),
	}
}

// Fetch requests every network/station/location/channel combination of q
// and concatenates the traces. Combinations without data are skipped;
// ErrNoData is returned only when none had any.
func (c *TimeseriesClient) Fetch(ctx context.Context, q seismic.WaveformQuery) (seismic.Stream, error) {
	var st seismic.Stream
	for _, net := range q.Network.Values() {
		for _, sta := range q.Station.Values() {
			for _, loc := range q.Location.Values() {
				for _, cha := range q.Channel.Values() {
					traces, err := c.fetchOne(ctx, net, sta, loc, cha, q.Start, q.End)
					if errors.Is(err, ErrNoData) {
						continue
					}
					if err != nil {
						return nil, fmt.Errorf("%s.%s.%s.%s: %w", net, sta, loc, cha, err)
					}
					st = append(st, traces...)
				}
			}
		}
	}
	if len(st) == 0 {
		return nil, ErrNoData
	}
	return st, nil
}

func (c *TimeseriesClient) fetchOne(ctx context.Context, net, sta, loc, cha string, start, end time.Time) (seismic.Stream, error) {
	if loc == "" {
		loc = "--"
	}
	values := url.Values{}
	values.Set("net", net)
	values.Set("sta", sta)
	values.Set("loc", loc)
	values.Set("cha", cha)
	values.Set("starttime", start.UTC().Format(queryTimeLayout))
	values.Set("endtime", end.UTC().Format(queryTimeLayout))
	values.Set("format", "ascii1")

	u := fmt.Sprintf("%s%s?%s", c.baseURL, timeseriesPath, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := doRequest(ctx, c.client, c.circuit, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return ParseSLIST(resp.Body)
}

// ParseSLIST decodes one or more "TIMESERIES ..." blocks, each followed by
// whitespace separated sample values.
func ParseSLIST(r io.Reader) (seismic.Stream, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		st  seismic.Stream
		cur *seismic.Trace
	)
	flush := func() {
		if cur != nil {
			st = append(st, *cur)
			cur = nil
		}
	}

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "TIMESERIES") {
			flush()
			tr, err := parseHeader(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			cur = &tr
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("line %d: sample before TIMESERIES header", line)
		}
		for _, field := range strings.Fields(text) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad sample %q: %w", line, field, err)
			}
			cur.Samples = append(cur.Samples, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return st, nil
}

// parseHeader reads e.g.
// "TIMESERIES IU_ANMO_00_BHZ_M, 1200 samples, 20 sps, 2005-01-01T00:00:00.019500, SLIST, INTEGER, Counts".
func parseHeader(text string) (seismic.Trace, error) {
	parts := strings.Split(strings.TrimSpace(strings.TrimPrefix(text, "TIMESERIES")), ",")
	if len(parts) < 5 {
		return seismic.Trace{}, fmt.Errorf("malformed header %q", text)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	codes := strings.Split(parts[0], "_")
	if len(codes) < 4 {
		return seismic.Trace{}, fmt.Errorf("malformed stream id %q", parts[0])
	}

	count, err := strconv.Atoi(strings.TrimSuffix(parts[1], " samples"))
	if err != nil {
		return seismic.Trace{}, fmt.Errorf("malformed sample count %q", parts[1])
	}
	sps, err := strconv.ParseFloat(strings.TrimSuffix(parts[2], " sps"), 64)
	if err != nil || sps <= 0 {
		return seismic.Trace{}, fmt.Errorf("malformed sample rate %q", parts[2])
	}
	start, err := parseTime(parts[3])
	if err != nil {
		return seismic.Trace{}, err
	}
	if parts[4] != "SLIST" {
		return seismic.Trace{}, fmt.Errorf("unsupported layout %q", parts[4])
	}

	return seismic.Trace{
		Network:    codes[0],
		Station:    codes[1],
		Location:   codes[2],
		Channel:    codes[3],
		StartTime:  start,
		SampleRate: sps,
		Samples:    make([]float64, 0, count),
	}, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

var _ seismic.WaveformClient = (*TimeseriesClient)(nil)
