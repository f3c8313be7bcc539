package music

// NoteEvent is one step of a generated sequence. It is either Simple (pitch
// only) or Weighted (pitch with velocity and an optional silent flag).
type NoteEvent struct {
	Pitch    string
	velocity float64
	weighted bool
	Silent   bool
}

// Simple creates a pitch-only event; the instrument uses its default velocity.
func Simple(pitch string) NoteEvent {
	return NoteEvent{Pitch: pitch}
}

// Weighted creates an event that carries its own velocity.
func Weighted(pitch string, velocity float64, silent bool) NoteEvent {
	return NoteEvent{Pitch: pitch, velocity: velocity, weighted: true, Silent: silent}
}

// Velocity returns the event velocity and whether it has one.
func (e NoteEvent) Velocity() (float64, bool) {
	return e.velocity, e.weighted
}

// Simples wraps plain pitch names.
func Simples(pitches ...string) []NoteEvent {
	out := make([]NoteEvent, len(pitches))
	for i, p := range pitches {
		out[i] = Simple(p)
	}
	return out
}
