package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/station-dayplot/internal/seismic"
	"github.com/i474232898/station-dayplot/internal/store"
)

func newApp(t *testing.T) (*fiber.App, time.Time) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)

	memStore := store.NewMemoryStore(10, time.Hour)
	memStore.SaveOutcome(seismic.Outcome{RunID: "r1", Station: "STA1", Window: "day", File: "/tmp/STA1_day.png", FinishedAt: now})

	app := fiber.New()
	RegisterRoutes(app, memStore)
	return app, now
}

func get(t *testing.T, app *fiber.App, url string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	require.NoError(t, err)
	return resp
}

func TestLatest(t *testing.T) {
	app, _ := newApp(t)

	resp := get(t, app, "/api/v1/plots/latest?station=STA1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var o seismic.Outcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	assert.Equal(t, "r1", o.RunID)
	assert.Equal(t, "/tmp/STA1_day.png", o.File)

	assert.Equal(t, http.StatusBadRequest, get(t, app, "/api/v1/plots/latest").StatusCode)
	assert.Equal(t, http.StatusNotFound, get(t, app, "/api/v1/plots/latest?station=NOPE").StatusCode)
}

func TestHistoryValidation(t *testing.T) {
	app, now := newApp(t)
	from := strconv.FormatInt(now.Add(-time.Minute).Unix(), 10)
	to := strconv.FormatInt(now.Add(time.Minute).Unix(), 10)

	// Missing range.
	assert.Equal(t, http.StatusBadRequest, get(t, app, "/api/v1/plots/history?station=STA1").StatusCode)

	// to before from.
	assert.Equal(t, http.StatusBadRequest, get(t, app, "/api/v1/plots/history?station=STA1&from="+to+"&to="+from).StatusCode)

	// Bad format.
	assert.Equal(t, http.StatusBadRequest, get(t, app, "/api/v1/plots/history?station=STA1&from=yesterday&to="+to).StatusCode)

	resp := get(t, app, "/api/v1/plots/history?station=STA1&from="+from+"&to="+to)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Station  string            `json:"station"`
		Outcomes []seismic.Outcome `json:"outcomes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "STA1", body.Station)
	assert.Len(t, body.Outcomes, 1)
}

func TestStations(t *testing.T) {
	app, _ := newApp(t)
	resp := get(t, app, "/api/v1/plots/stations")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Stations []string `json:"stations"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"STA1"}, body.Stations)
}
