package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/station-dayplot/internal/seismic"
	"github.com/i474232898/station-dayplot/internal/store"
)

var validate = validator.New()

// OutcomeReader is the read side of the outcome store.
type OutcomeReader interface {
	GetLatest(station string) (seismic.Outcome, error)
	GetRange(station string, from, to time.Time) ([]seismic.Outcome, error)
	Stations() []string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, outcomes OutcomeReader) {
	v1 := app.Group("/api/v1")

	v1.Get("/plots/stations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"stations": outcomes.Stations()})
	})

	v1.Get("/plots/latest", func(c *fiber.Ctx) error {
		q, err := parseStationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		o, err := outcomes.GetLatest(q.Station)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no plot outcome for requested station")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read plot outcome")
		}

		return c.JSON(o)
	})

	v1.Get("/plots/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		list, err := outcomes.GetRange(req.Station.Station, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no plot outcomes for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read plot outcomes")
		}

		return c.JSON(fiber.Map{
			"station":  req.Station.Station,
			"from":     req.From,
			"to":       req.To,
			"outcomes": list,
		})
	})
}

// stationQuery identifies a station by its config section title.
type stationQuery struct {
	Station string `validate:"required"`
}

func parseStationQuery(c *fiber.Ctx) (stationQuery, error) {
	q := stationQuery{Station: c.Query("station")}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Station stationQuery
	From    time.Time `validate:"required"`
	To      time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	q, err := parseStationQuery(c)
	if err != nil {
		return err
	}
	h.Station = q

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime accepts RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
