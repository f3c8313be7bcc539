package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	httpapi "github.com/i474232898/weather-in-sound/internal/api/http"
	"github.com/i474232898/weather-in-sound/internal/bridge"
	"github.com/i474232898/weather-in-sound/internal/config"
	"github.com/i474232898/weather-in-sound/internal/engine"
	"github.com/i474232898/weather-in-sound/internal/locations"
	"github.com/i474232898/weather-in-sound/internal/scheduler"
	"github.com/i474232898/weather-in-sound/internal/store"
	"github.com/i474232898/weather-in-sound/internal/synth"
	"github.com/i474232898/weather-in-sound/internal/weather"
	"github.com/i474232898/weather-in-sound/internal/weather/providers"
)

func main() {
	// Load configuration (.env first, then the environment).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Open-Meteo needs no key; the others join when configured.
	provs := []weather.Provider{
		providers.NewOpenMeteoProvider(httpClient, cfg.FallbackCondition),
	}
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.FallbackCondition))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, cfg.FallbackCondition))
	}
	log.Printf("INFO: %d weather providers configured", len(provs))

	// Core service orchestrating providers and store.
	service := weather.NewService(memStore, provs)

	catalog, err := locations.LoadCatalog(cfg.LocationsFile)
	if err != nil {
		log.Fatalf("failed to load locations: %v", err)
	}
	var geocode locations.GeocodeFunc
	if cfg.GeocoderAPIKey != "" {
		geocode = locations.GoogleGeocoder(cfg.GeocoderAPIKey)
	}
	resolver := locations.NewResolver(catalog, geocode)

	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatalf("failed to open synth backend %q: %v", cfg.SynthBackend, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Printf("error closing synth backend: %v", err)
		}
	}()

	audio := bridge.New(func() *engine.Engine {
		return engine.New(backend)
	})
	defer audio.Cleanup()

	// Tracked locations refreshed in the background besides the one playing.
	tracked := resolveTracked(resolver, cfg.Locations)

	sched := scheduler.New(func() []weather.Location { return tracked }, cfg.FetchInterval, service, audio)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-in-sound",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
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

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-in-sound",
			"backend": cfg.SynthBackend,
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Service:  service,
		Resolver: resolver,
		Bridge:   audio,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func newBackend(cfg *config.AppConfig) (synth.Backend, error) {
	switch cfg.SynthBackend {
	case config.BackendBeep:
		return synth.NewBeep(cfg.SampleRate, nil), nil
	case config.BackendMIDI:
		send, err := synth.OpenMIDIPort(cfg.MIDIPort)
		if err != nil {
			return nil, err
		}
		return synth.NewMIDI(send), nil
	default:
		return synth.NewRecorder(true), nil
	}
}

func resolveTracked(resolver *locations.Resolver, locs []weather.Location) []weather.Location {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var tracked []weather.Location
	for _, l := range locs {
		loc, err := resolver.Resolve(ctx, l.City, l.Country)
		if err != nil {
			log.Printf("ERROR: skipping tracked location %s: %v", l.Key(), err)
			continue
		}
		tracked = append(tracked, loc)
	}
	return tracked
}
