package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-in-sound/internal/bridge"
	"github.com/i474232898/weather-in-sound/internal/locations"
	"github.com/i474232898/weather-in-sound/internal/store"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

var validate = validator.New()

// Deps are the collaborators the handlers call into.
type Deps struct {
	Service  *weather.Service
	Resolver *locations.Resolver
	Bridge   *bridge.Bridge
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"locations": deps.Resolver.Catalog().All(),
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		locReq, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := resolve(c, deps.Resolver, locReq)
		if err != nil {
			return err
		}
		snapshot, err := deps.Service.GetLatest(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(snapshot)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := resolve(c, deps.Resolver, req.Location)
		if err != nil {
			return err
		}
		snapshots, err := deps.Service.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location":  loc,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Post("/weather/fetch", func(c *fiber.Ctx) error {
		var req locationQuery
		if err := bindBody(c, &req); err != nil {
			return err
		}
		loc, err := resolve(c, deps.Resolver, req)
		if err != nil {
			return err
		}
		snapshot, err := deps.Service.FetchAndStore(c.UserContext(), loc)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(snapshot)
	})

	registerAudioRoutes(v1, deps)
	registerMusicRoutes(v1)
}

// locationQuery identifies a location. Country is optional for presets.
type locationQuery struct {
	City    string `json:"city" validate:"required"`
	Country string `json:"country"`
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	q.City = c.Query("city")
	q.Country = c.Query("country")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

func resolve(c *fiber.Ctx, r *locations.Resolver, q locationQuery) (weather.Location, error) {
	loc, err := r.Resolve(c.UserContext(), q.City, q.Country)
	if err != nil {
		if errors.Is(err, locations.ErrUnknownLocation) {
			return loc, fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return loc, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return loc, nil
}

// bindBody parses a JSON body into v and validates it.
func bindBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

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

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
