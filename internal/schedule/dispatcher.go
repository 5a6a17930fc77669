package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jenojiji/jcmp-relay/internal/stats"
)

const (
	// TickInterval is the dispatcher wake granularity. Coarser ticks bias
	// playback late; finer ticks burn CPU for nothing audible.
	TickInterval = 5 * time.Millisecond

	// LateDropMS: an event overdue by more than this is discarded. A note
	// that far behind glitches worse than silence, and the adaptive buffer
	// has already re-sized to stop it recurring.
	LateDropMS = 50

	// SafetyReleaseMS is the delay after each scheduled (performance-lane)
	// NoteOn at which the companion safety NoteOff is scheduled, bounding
	// stuck-note risk.
	SafetyReleaseMS = 800
)

// Sink receives scheduled events as they come due. Channels are 1-based.
type Sink interface {
	NoteOn(channel, note, velocity uint8)
	NoteOff(channel, note, velocity uint8)
	ControlChange(channel, controller, value uint8)
	ProgramChange(channel, program uint8)
}

// Dispatcher drains the playback queue on a fixed tick and plays due
// events into the sink. It is the only consumer of the queue.
type Dispatcher struct {
	queue    *Queue
	sink     Sink
	counters *stats.Counters
	log      *zap.Logger
	debug    bool

	now            func() time.Time
	lastDispatchMS int64
}

func NewDispatcher(q *Queue, sink Sink, counters *stats.Counters, log *zap.Logger, debug bool) *Dispatcher {
	return &Dispatcher{
		queue:    q,
		sink:     sink,
		counters: counters,
		log:      log,
		debug:    debug,
		now:      time.Now,
	}
}

// Run ticks until the context is cancelled. It never blocks on anything
// but the ticker and never returns an error; the hot path swallows
// everything.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick drains every event whose deadline has passed. Events more than
// LateDropMS overdue are dropped silently; the client is not told.
func (d *Dispatcher) Tick() {
	nowMS := d.now().UnixMilli()
	for {
		evt, ok := d.queue.Peek()
		if !ok || evt.PlayAt > nowMS {
			return
		}
		evt, _ = d.queue.Pop()

		lateness := nowMS - evt.PlayAt
		if lateness > LateDropMS {
			d.counters.AddLateDrop()
			d.log.Debug("late drop",
				zap.String("kind", evt.Kind.String()),
				zap.Int64("latenessMs", lateness))
			continue
		}

		d.emit(evt)
		if d.debug {
			fields := []zap.Field{
				zap.String("kind", evt.Kind.String()),
				zap.Int64("playbackErrorMs", lateness),
			}
			if d.lastDispatchMS != 0 {
				fields = append(fields, zap.Int64("interPlaybackMs", nowMS-d.lastDispatchMS))
			}
			d.log.Debug("dispatch", fields...)
		}
		d.lastDispatchMS = nowMS
	}
}

func (d *Dispatcher) emit(evt Event) {
	switch evt.Kind {
	case NoteOn:
		d.sink.NoteOn(evt.Channel, evt.Note, evt.Velocity)
	case NoteOff:
		d.sink.NoteOff(evt.Channel, evt.Note, evt.Velocity)
	case ControlChange:
		d.sink.ControlChange(evt.Channel, evt.Controller, evt.Value)
	case ProgramChange:
		d.sink.ProgramChange(evt.Channel, evt.Program)
	}
}
