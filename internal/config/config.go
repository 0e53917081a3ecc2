package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig holds the process-level settings read from the environment.
// Station definitions live in the INI file passed on the command line.
type AppConfig struct {
	WaveformServiceURL string        `validate:"required,url"`
	EventServiceURL    string        `validate:"required,url"`
	HTTPTimeout        time.Duration `validate:"gt=0"`

	LogLevel      string `validate:"oneof=debug info warn error"`
	FailurePolicy string `validate:"oneof=fail-fast continue"`
	PlotWidth     int    `validate:"gte=400,lte=10000"`

	// ScheduleInterval re-runs the batch periodically when > 0.
	ScheduleInterval time.Duration `validate:"gte=0"`
	// Port enables the status API when set (scheduled mode only).
	Port string `validate:"omitempty,numeric"`

	// Outcome retention for the status API.
	StoreMaxHistory int           `validate:"gte=0"` // 0 = unlimited
	StoreMaxAge     time.Duration `validate:"gte=0"` // 0 = unlimited
}

var validate = validator.New()

// Load reads configuration from the environment (and a .env file when one
// exists) with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	cfg := &AppConfig{
		WaveformServiceURL: getenvDefault("WAVEFORM_SERVICE_URL", "https://service.iris.edu"),
		EventServiceURL:    getenvDefault("EVENT_SERVICE_URL", "https://www.seismicportal.eu"),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
		FailurePolicy:      getenvDefault("FAILURE_POLICY", "fail-fast"),
		Port:               os.Getenv("PORT"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "2m"); err != nil {
		return nil, err
	}
	if cfg.ScheduleInterval, err = getenvDuration("SCHEDULE_INTERVAL", "0s"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "168h"); err != nil {
		return nil, err
	}
	if cfg.PlotWidth, err = getenvInt("PLOT_WIDTH", 1600); err != nil {
		return nil, err
	}
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 96); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
