package relay

import (
	"encoding/json"

	"go.uber.org/zap"
)

// handleSignal dispatches one inbound signaling frame. Malformed JSON is
// dropped, unknown types are logged and ignored; neither closes the
// connection.
func (s *Server) handleSignal(c *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.log.Debug("unparseable signaling frame", zap.Int("client", c.ID), zap.Error(err))
		return
	}

	switch msg.Type {
	case "client-hello":
		if err := c.send(serverWelcome{
			Type:          "server-welcome",
			ID:            c.ID,
			MidiAvailable: s.sink.Connected(),
		}); err != nil {
			s.log.Warn("welcome send failed", zap.Int("client", c.ID), zap.Error(err))
		}

	case "webrtc-offer":
		if msg.Offer == nil {
			s.log.Warn("offer frame without offer", zap.Int("client", c.ID))
			return
		}
		s.handleOffer(c.ID, *msg.Offer)

	case "webrtc-ice-candidate":
		if msg.Candidate == nil {
			return
		}
		pc := c.peer()
		if pc == nil {
			s.log.Debug("ice candidate before offer", zap.Int("client", c.ID))
			return
		}
		if err := pc.AddICECandidate(*msg.Candidate); err != nil {
			s.log.Warn("add ice candidate failed", zap.Int("client", c.ID), zap.Error(err))
		}

	case "noteOn", "noteOff", "controlChange", "programChange":
		s.handleImmediate(c, msg)

	case "transport":
		s.handleTransport(c, msg.Action)

	default:
		s.log.Info("unknown signaling type", zap.Int("client", c.ID), zap.String("type", msg.Type))
	}
}

// handleImmediate plays a signaling-lane MIDI event synchronously. These
// never touch the playback queue; arrival order is dispatch order.
func (s *Server) handleImmediate(c *Client, msg clientMessage) {
	s.counters.AddWSImmediate()

	if s.debug && msg.Timestamp != nil {
		s.log.Debug("ws event",
			zap.Int("client", c.ID),
			zap.String("type", msg.Type),
			zap.Int64("wsLatencyMs", s.now().UnixMilli()-*msg.Timestamp))
	}

	switch msg.Type {
	case "noteOn":
		s.sink.NoteOn(msg.Channel, msg.Note, msg.Velocity)
	case "noteOff":
		s.sink.NoteOff(msg.Channel, msg.Note, msg.Velocity)
	case "controlChange":
		s.sink.ControlChange(msg.Channel, msg.Control, msg.Value)
	case "programChange":
		s.sink.ProgramChange(msg.Channel, msg.Program)
	}
}

// Transport mapping: play → Start, stop → Stop, pause → Continue, and
// record is signalled as CC 119 on channel 1 for DAWs that map it.
func (s *Server) handleTransport(c *Client, action string) {
	switch action {
	case "play":
		s.sink.TransportStart()
	case "stop":
		s.sink.TransportStop()
	case "pause":
		s.sink.TransportContinue()
	case "record":
		s.sink.ControlChange(1, 119, 127)
	default:
		s.log.Info("unknown transport action", zap.Int("client", c.ID), zap.String("action", action))
		return
	}
	s.log.Info("transport", zap.Int("client", c.ID), zap.String("action", action))
}
