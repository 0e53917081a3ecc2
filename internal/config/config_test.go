package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"WAVEFORM_SERVICE_URL", "EVENT_SERVICE_URL", "HTTP_TIMEOUT", "LOG_LEVEL",
		"FAILURE_POLICY", "PLOT_WIDTH", "SCHEDULE_INTERVAL", "PORT",
		"STORE_MAX_HISTORY", "STORE_MAX_AGE",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://service.iris.edu", cfg.WaveformServiceURL)
	assert.Equal(t, "https://www.seismicportal.eu", cfg.EventServiceURL)
	assert.Equal(t, 2*time.Minute, cfg.HTTPTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "fail-fast", cfg.FailurePolicy)
	assert.Equal(t, 1600, cfg.PlotWidth)
	assert.Zero(t, cfg.ScheduleInterval)
	assert.Equal(t, 96, cfg.StoreMaxHistory)
	assert.Equal(t, 168*time.Hour, cfg.StoreMaxAge)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FAILURE_POLICY", "continue")
	t.Setenv("SCHEDULE_INTERVAL", "6h")
	t.Setenv("PORT", "9090")
	t.Setenv("PLOT_WIDTH", "2400")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "continue", cfg.FailurePolicy)
	assert.Equal(t, 6*time.Hour, cfg.ScheduleInterval)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2400, cfg.PlotWidth)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"FAILURE_POLICY":       "sometimes",
		"HTTP_TIMEOUT":         "soon",
		"PLOT_WIDTH":           "wide",
		"WAVEFORM_SERVICE_URL": "not a url",
		"LOG_LEVEL":            "loud",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
