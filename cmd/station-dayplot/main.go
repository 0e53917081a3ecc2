package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/station-dayplot/internal/api/http"
	"github.com/i474232898/station-dayplot/internal/cli"
	"github.com/i474232898/station-dayplot/internal/config"
	"github.com/i474232898/station-dayplot/internal/logger"
	"github.com/i474232898/station-dayplot/internal/scheduler"
	"github.com/i474232898/station-dayplot/internal/seismic"
	"github.com/i474232898/station-dayplot/internal/seismic/fdsn"
	"github.com/i474232898/station-dayplot/internal/seismic/filter"
	"github.com/i474232898/station-dayplot/internal/seismic/render"
	"github.com/i474232898/station-dayplot/internal/stations"
	"github.com/i474232898/station-dayplot/internal/store"
	"github.com/i474232898/station-dayplot/internal/timewindow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Errorw("failed to load config", "err", err)
		os.Exit(1)
	}
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = newApp(cfg, log, os.Stdout).run(ctx, os.Args[1:])
	if code := exitCode(err); code != 0 {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != 2 {
			log.Errorw("run failed", "err", err)
		}
		_ = log.Sync()
		os.Exit(code)
	}
}

// exitCode maps a run error onto the process status. A missing required
// config field exits 0: it is reported as a warning, not a failure.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var missing *stations.MissingFieldError
	if errors.As(err, &missing) {
		return 0
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

type app struct {
	cfg *config.AppConfig
	log *logger.Logger
	out io.Writer
	now func() time.Time

	waveforms seismic.WaveformClient
	filter    seismic.Filter
	renderer  seismic.Renderer
}

func newApp(cfg *config.AppConfig, log *logger.Logger, out io.Writer) *app {
	// Shared HTTP client for outbound service calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	events := fdsn.NewEventClient(httpClient, cfg.EventServiceURL)

	return &app{
		cfg:       cfg,
		log:       log,
		out:       out,
		now:       time.Now,
		waveforms: fdsn.NewTimeseriesClient(httpClient, cfg.WaveformServiceURL),
		filter:    filter.NewButterworth(),
		renderer:  render.NewDayPlot(events, log, cfg.PlotWidth),
	}
}

func (a *app) run(ctx context.Context, argv []string) error {
	args, shouldExit, err := cli.Parse(argv, a.out)
	if err != nil || shouldExit {
		return err
	}

	records, err := stations.Load(args.ConfigFile)
	if err != nil {
		var missing *stations.MissingFieldError
		if errors.As(err, &missing) {
			a.log.Warnw(fmt.Sprintf("Warning: %s is missing from config file", missing.Field),
				"section", missing.Section,
				"field", missing.Field,
				"config", args.ConfigFile,
			)
		}
		return err
	}
	if len(records) == 0 {
		a.log.Warnw("config file defines no stations", "config", args.ConfigFile)
	}

	window, err := timewindow.Resolve(args.TimeWindow)
	if err != nil {
		return err
	}

	policy, err := seismic.ParseFailurePolicy(a.cfg.FailurePolicy)
	if err != nil {
		return err
	}

	opts := []seismic.Option{seismic.WithPolicy(policy), seismic.WithLogger(a.log)}

	if a.cfg.ScheduleInterval <= 0 {
		svc := seismic.NewService(a.waveforms, a.filter, a.renderer, opts...)
		rc := seismic.NewRunContext(args.ConfigFile, window, args.DestDir, a.now())
		return svc.Run(ctx, rc, records)
	}

	memStore := store.NewMemoryStore(a.cfg.StoreMaxHistory, a.cfg.StoreMaxAge)
	svc := seismic.NewService(a.waveforms, a.filter, a.renderer, append(opts, seismic.WithRecorder(memStore))...)
	return a.serve(ctx, svc, memStore, args, window, records)
}

// serve re-runs the batch every ScheduleInterval until ctx is done, with the
// status API on Port when configured.
func (a *app) serve(ctx context.Context, svc *seismic.Service, memStore *store.MemoryStore, args cli.Args, window timewindow.Window, records []stations.StationRecord) error {
	sched := scheduler.New(a.cfg.ScheduleInterval, func(jobCtx context.Context) error {
		rc := seismic.NewRunContext(args.ConfigFile, window, args.DestDir, a.now())
		return svc.Run(jobCtx, rc, records)
	}, a.log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	var api *fiber.App
	if a.cfg.Port != "" {
		api = newStatusAPI(memStore)
		go func() {
			if err := api.Listen(":" + a.cfg.Port); err != nil {
				a.log.Errorw("status api stopped", "err", err)
			}
		}()
	}

	<-ctx.Done()

	if api != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.ShutdownWithContext(shutdownCtx); err != nil {
			a.log.Errorw("error during shutdown", "err", err)
		}
	}
	return nil
}

func newStatusAPI(memStore *store.MemoryStore) *fiber.App {
	api := fiber.New(fiber.Config{
		AppName:               "station-dayplot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	api.Use(fiberlogger.New())
	api.Use(recover.New())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "station-dayplot",
		})
	})

	httpapi.RegisterRoutes(api, memStore)
	return api
}
