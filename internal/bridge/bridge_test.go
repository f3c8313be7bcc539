package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/i474232898/weather-in-sound/internal/engine"
	"github.com/i474232898/weather-in-sound/internal/synth"
	"github.com/i474232898/weather-in-sound/internal/transport"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

var quito = weather.Location{City: "Quito", Country: "Ecuador", Lat: -0.1807, Lon: -78.4678}

func cloudy() weather.WeatherSnapshot {
	return weather.WeatherSnapshot{
		Location:      quito,
		Temperature:   14,
		Humidity:      70,
		WindSpeed:     6,
		WindDirection: weather.WindDirectionFromDegrees(200),
		Condition:     weather.ConditionCloudy,
	}
}

func newBridge() (*Bridge, *synth.Recorder, *int) {
	rec := synth.NewRecorder(false)
	built := 0
	b := New(func() *engine.Engine {
		built++
		return engine.New(rec, engine.WithManualClock(), engine.WithSeed(int64(built)))
	})
	return b, rec, &built
}

func TestMissingEngineIsTolerated(t *testing.T) {
	b, _, built := newBridge()

	b.Stop()
	b.ToggleMelody(true)
	b.ToggleLead(false)
	b.ToggleBass(false)
	b.Cleanup()

	assert.Equal(t, engine.States{Melody: false, Lead: true, Bass: true}, b.InstrumentStates())
	_, ok := b.Session()
	assert.False(t, ok)
	_, _, playing := b.NowPlaying()
	assert.False(t, playing)
	assert.Nil(t, b.Engine())
	assert.Zero(t, *built)
}

func TestInitializeIsIdempotent(t *testing.T) {
	b, _, built := newBridge()
	first, err := b.Initialize(context.Background())
	require.NoError(t, err)
	second, err := b.Initialize(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, *built)
	id, ok := b.Session()
	assert.True(t, ok)
	assert.Equal(t, first.ID, id)
}

func TestPlayAutoInitializes(t *testing.T) {
	b, rec, built := newBridge()
	require.NoError(t, b.Play(context.Background(), cloudy(), quito))
	assert.Equal(t, 1, *built)

	snap, loc, playing := b.NowPlaying()
	require.True(t, playing)
	assert.Equal(t, weather.ConditionCloudy, snap.Condition)
	assert.Equal(t, quito, loc)

	b.Engine().Transport().Advance(transport.Whole)
	assert.NotEmpty(t, rec.NotesFor("lead"))

	b.Stop()
	_, _, playing = b.NowPlaying()
	assert.False(t, playing)
}

func TestPlaySurfacesInitFailure(t *testing.T) {
	b, rec, _ := newBridge()
	rec.FailInstrument = "melody"

	err := b.Play(context.Background(), cloudy(), quito)
	require.Error(t, err)
	assert.Nil(t, b.Engine())

	rec.FailInstrument = ""
	require.NoError(t, b.Play(context.Background(), cloudy(), quito))
	assert.NotNil(t, b.Engine())
}

func TestToggleBassResumesWithStoredSnapshot(t *testing.T) {
	b, rec, _ := newBridge()
	require.NoError(t, b.Play(context.Background(), cloudy(), quito))
	tr := b.Engine().Transport()

	b.ToggleBass(false)
	assert.False(t, b.InstrumentStates().Bass)
	tr.Advance(transport.Whole)
	rec.Reset()
	tr.Advance(transport.Whole)
	assert.Empty(t, rec.NotesFor("bass"))

	b.ToggleBass(true)
	assert.True(t, b.InstrumentStates().Bass)
	tr.Advance(transport.Whole)
	played := rec.NotesFor("bass")
	require.NotEmpty(t, played)
	// Cloudy triad: C, F, Bb.
	assert.Contains(t, []string{"C2", "F2", "A#2", "Bb2"}, played[0].Pitch)
}

func TestCleanupThenInitializeBuildsNewEngine(t *testing.T) {
	b, rec, built := newBridge()
	first, err := b.Initialize(context.Background())
	require.NoError(t, err)
	require.NoError(t, b.Play(context.Background(), cloudy(), quito))
	firstID := first.ID

	b.Cleanup()
	assert.Nil(t, b.Engine())
	assert.False(t, first.Initialized())

	second, err := b.Initialize(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, firstID, second.ID)
	assert.Equal(t, 2, *built)

	require.NoError(t, b.Play(context.Background(), cloudy(), quito))
	rec.Reset()
	second.Transport().Advance(transport.Whole)
	assert.NotEmpty(t, rec.NotesFor("lead"))
	assert.NotEmpty(t, rec.NotesFor("bass"))
}

func TestRepeatedRebuildsOverMIDI(t *testing.T) {
	var mu sync.Mutex
	var sent []midi.Message
	send := func(msg midi.Message) error {
		mu.Lock()
		sent = append(sent, msg)
		mu.Unlock()
		return nil
	}
	backend := synth.NewMIDI(send)
	b := New(func() *engine.Engine {
		return engine.New(backend, engine.WithManualClock(), engine.WithSeed(1))
	})

	for cycle := 0; cycle < 10; cycle++ {
		e, err := b.Initialize(context.Background())
		require.NoError(t, err, "cycle %d", cycle)
		require.NoError(t, b.Play(context.Background(), cloudy(), quito), "cycle %d", cycle)
		e.Transport().Advance(transport.Whole)
		b.Cleanup()
		assert.Equal(t, 15, backend.FreeChannels(), "cycle %d", cycle)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, msg := range sent {
		var ch, key, vel uint8
		if msg.GetNoteOn(&ch, &key, &vel) {
			assert.NotEqual(t, uint8(9), ch, "note on percussion channel")
		}
	}
}

func TestRefreshOnlySwapsPlayingLocation(t *testing.T) {
	b, _, built := newBridge()
	assert.False(t, b.Refresh(cloudy(), quito))
	assert.Zero(t, *built)

	require.NoError(t, b.Play(context.Background(), cloudy(), quito))

	other := weather.Location{City: "Berlin", Country: "Germany"}
	assert.False(t, b.Refresh(cloudy(), other))

	windy := cloudy()
	windy.Condition = weather.ConditionWindy
	windy.WindSpeed = 40
	assert.True(t, b.Refresh(windy, quito))
	snap, _, _ := b.NowPlaying()
	assert.Equal(t, weather.ConditionWindy, snap.Condition)

	b.Stop()
	assert.False(t, b.Refresh(cloudy(), quito))
}
