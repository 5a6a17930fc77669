package relay

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jenojiji/jcmp-relay/internal/schedule"
)

// handlePerf ingests one performance-lane datagram: update the client's
// latency window, derive the deadline and enqueue. The datagram's own
// timestamp anchors the deadline, so a skewed client clock shifts every
// event uniformly and inter-event spacing survives.
func (s *Server) handlePerf(clientID int, raw []byte) {
	c := s.registry.Get(clientID)
	if c == nil {
		return
	}

	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.log.Debug("unparseable perf datagram", zap.Int("client", clientID), zap.Error(err))
		return
	}

	nowMS := s.now().UnixMilli()
	ts := nowMS
	if msg.Timestamp != nil {
		ts = *msg.Timestamp
	}
	latency := nowMS - ts
	if latency < 0 {
		latency = 0
	}

	depth := c.window.Observe(latency)
	c.lastSeen.Store(nowMS)
	playAt := ts + int64(depth)

	switch msg.Type {
	case "noteOn":
		s.queue.Insert(schedule.Event{
			PlayAt:   playAt,
			Kind:     schedule.NoteOn,
			Channel:  msg.Channel,
			Note:     msg.Note,
			Velocity: msg.Velocity,
		})
		// Safety release: bounds stuck notes if the matching NoteOff is
		// lost on the unreliable lane.
		s.queue.Insert(schedule.Event{
			PlayAt:  playAt + schedule.SafetyReleaseMS,
			Kind:    schedule.NoteOff,
			Channel: msg.Channel,
			Note:    msg.Note,
		})
	case "noteOff":
		s.queue.Insert(schedule.Event{
			PlayAt:   playAt,
			Kind:     schedule.NoteOff,
			Channel:  msg.Channel,
			Note:     msg.Note,
			Velocity: msg.Velocity,
		})
	case "controlChange":
		s.queue.Insert(schedule.Event{
			PlayAt:     playAt,
			Kind:       schedule.ControlChange,
			Channel:    msg.Channel,
			Controller: msg.Control,
			Value:      msg.Value,
		})
	case "programChange":
		s.queue.Insert(schedule.Event{
			PlayAt:  playAt,
			Kind:    schedule.ProgramChange,
			Channel: msg.Channel,
			Program: msg.Program,
		})
	default:
		s.log.Debug("unknown perf type", zap.Int("client", clientID), zap.String("type", msg.Type))
		return
	}

	s.counters.AddRTCPerf()

	if s.debug {
		s.log.Debug("rtc event",
			zap.Int("client", clientID),
			zap.String("type", msg.Type),
			zap.Int64("latencyMs", latency),
			zap.Int("bufferMs", depth))
	}
}
