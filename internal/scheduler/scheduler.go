package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-in-sound/internal/weather"
)

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 15 * time.Minute

// fetchTimeout bounds one location fetch inside a job run.
const fetchTimeout = 30 * time.Second

// Fetcher fetches and stores a fresh snapshot.
type Fetcher interface {
	FetchAndStore(ctx context.Context, loc weather.Location) (weather.WeatherSnapshot, error)
}

// Player is the audio side of the refresh: it reports what is playing and
// accepts a newer snapshot for it.
type Player interface {
	NowPlaying() (weather.WeatherSnapshot, weather.Location, bool)
	Refresh(snap weather.WeatherSnapshot, loc weather.Location) bool
}

// Scheduler periodically refreshes the tracked locations and the location
// being played, swapping fresh weather into the running soundscape.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	player    Player
	locations func() []weather.Location
	interval  time.Duration
}

// New creates a Scheduler. locations is consulted on every run so presets
// added at runtime are picked up.
func New(locations func() []weather.Location, interval time.Duration, fetcher Fetcher, player Player) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		fetcher:   fetcher,
		player:    player,
		locations: locations,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("INFO: scheduler: refreshing every %s", s.interval)
	return nil
}

// RunOnce fetches every tracked location plus the playing one, then hands
// the playing location's snapshot to the player.
func (s *Scheduler) RunOnce(ctx context.Context) {
	log.Println("scheduler: running weather fetch job")

	targets := make(map[string]weather.Location)
	if s.locations != nil {
		for _, loc := range s.locations() {
			targets[loc.Key()] = loc
		}
	}
	_, playingLoc, playing := s.player.NowPlaying()
	if playing {
		targets[playingLoc.Key()] = playingLoc
	}

	var wg sync.WaitGroup
	for key, loc := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()

			fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			snap, err := s.fetcher.FetchAndStore(fctx, loc)
			if err != nil {
				log.Printf("scheduler: fetch failed for %s: %v", key, err)
				return
			}
			if playing && key == playingLoc.Key() && s.player.Refresh(snap, loc) {
				log.Printf("INFO: scheduler: refreshed soundscape for %s", loc.City)
			}
		}()
	}
	wg.Wait()
	log.Println("scheduler: completed weather fetch job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
