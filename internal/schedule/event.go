package schedule

// EventKind discriminates the payload of a scheduled event. The set is
// closed: the dispatcher switches on it exhaustively.
type EventKind uint8

const (
	NoteOn EventKind = iota
	NoteOff
	ControlChange
	ProgramChange
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "noteOn"
	case NoteOff:
		return "noteOff"
	case ControlChange:
		return "controlChange"
	case ProgramChange:
		return "programChange"
	}
	return "unknown"
}

// Event is one MIDI action waiting in the playback queue. PlayAt is an
// absolute wall-clock deadline in milliseconds. Channel is 1-based; the
// sink translates at the device boundary.
type Event struct {
	PlayAt  int64
	Kind    EventKind
	Channel uint8

	// NoteOn / NoteOff
	Note     uint8
	Velocity uint8

	// ControlChange
	Controller uint8
	Value      uint8

	// ProgramChange
	Program uint8
}
