package httpapi

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-in-sound/internal/bridge"
	"github.com/i474232898/weather-in-sound/internal/music"
	"github.com/i474232898/weather-in-sound/internal/store"
	"github.com/i474232898/weather-in-sound/internal/voice"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

// snapshotRequest is a hand-made weather reading.
type snapshotRequest struct {
	City          string  `json:"city"`
	Country       string  `json:"country"`
	Lat           float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon           float64 `json:"lon" validate:"gte=-180,lte=180"`
	Temperature   int     `json:"temperature" validate:"gte=-100,lte=100"`
	Humidity      float64 `json:"humidity" validate:"gte=0,lte=100"`
	WindSpeed     float64 `json:"windSpeed" validate:"gte=0"`
	WindDirection float64 `json:"windDirection"`
	Condition     string  `json:"condition" validate:"required"`
	AirPressure   float64 `json:"airPressure" validate:"gte=0"`
}

func (r snapshotRequest) toSnapshot() weather.WeatherSnapshot {
	cond, _ := weather.ParseCondition(r.Condition)
	return weather.WeatherSnapshot{
		Location:      weather.Location{City: r.City, Country: r.Country, Lat: r.Lat, Lon: r.Lon},
		Timestamp:     time.Now().UTC(),
		Temperature:   r.Temperature,
		Humidity:      r.Humidity,
		WindSpeed:     r.WindSpeed,
		WindDirection: weather.WindDirectionFromDegrees(r.WindDirection),
		Condition:     cond,
		AirPressure:   r.AirPressure,
	}
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func registerAudioRoutes(v1 fiber.Router, deps Deps) {
	audio := v1.Group("/audio")

	audio.Post("/initialize", func(c *fiber.Ctx) error {
		e, err := deps.Bridge.Initialize(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(fiber.Map{
			"session":     e.ID,
			"instruments": e.States(),
		})
	})

	audio.Post("/play", func(c *fiber.Ctx) error {
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
			log.Printf("api: fresh fetch for %s failed, trying stored snapshot: %v", loc.Key(), err)
			snapshot, err = deps.Service.GetLatest(loc)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fiber.NewError(fiber.StatusBadGateway, "no weather available for requested location")
				}
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}

		return play(c, deps.Bridge, snapshot, loc)
	})

	audio.Post("/snapshot", func(c *fiber.Ctx) error {
		var req snapshotRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		snapshot := req.toSnapshot()
		return play(c, deps.Bridge, snapshot, snapshot.Location)
	})

	audio.Post("/stop", func(c *fiber.Ctx) error {
		deps.Bridge.Stop()
		return c.JSON(fiber.Map{"stopped": true})
	})

	audio.Post("/cleanup", func(c *fiber.Ctx) error {
		deps.Bridge.Cleanup()
		return c.JSON(fiber.Map{"cleaned": true})
	})

	audio.Get("/session", func(c *fiber.Ctx) error {
		id, ok := deps.Bridge.Session()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "audio engine not initialized")
		}
		resp := fiber.Map{
			"session":     id,
			"instruments": deps.Bridge.InstrumentStates(),
			"playing":     false,
		}
		if snap, loc, playing := deps.Bridge.NowPlaying(); playing {
			resp["playing"] = true
			resp["location"] = loc
			resp["snapshot"] = snap
		}
		return c.JSON(resp)
	})

	audio.Get("/instruments", func(c *fiber.Ctx) error {
		return c.JSON(deps.Bridge.InstrumentStates())
	})

	audio.Put("/instruments/:name", func(c *fiber.Ctx) error {
		kind, err := voice.ParseKind(c.Params("name"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		var req toggleRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		deps.Bridge.Toggle(kind, *req.Enabled)
		return c.JSON(deps.Bridge.InstrumentStates())
	})
}

func play(c *fiber.Ctx, b *bridge.Bridge, snapshot weather.WeatherSnapshot, loc weather.Location) error {
	if err := b.Play(c.UserContext(), snapshot, loc); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	id, _ := b.Session()
	return c.JSON(fiber.Map{
		"session":     id,
		"location":    loc,
		"snapshot":    snapshot,
		"parameters":  music.MapWeatherToParameters(snapshot),
		"scale":       music.ScaleForWeather(snapshot),
		"instruments": b.InstrumentStates(),
	})
}
