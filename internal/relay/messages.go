package relay

import (
	"github.com/pion/webrtc/v4"

	"github.com/jenojiji/jcmp-relay/internal/stats"
)

// clientMessage is the inbound frame shape for both lanes. Signaling
// frames and performance datagrams share the flat layout; fields beyond
// Type are populated per message kind.
type clientMessage struct {
	Type string `json:"type"`

	// webrtc-offer / webrtc-ice-candidate
	Offer     *webrtc.SessionDescription `json:"offer,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`

	// MIDI events
	Channel  uint8 `json:"channel"`
	Note     uint8 `json:"note"`
	Velocity uint8 `json:"velocity"`
	Control  uint8 `json:"control"`
	Value    uint8 `json:"value"`
	Program  uint8 `json:"program"`

	// Client wall clock in ms. Absent on the immediate lane is fine;
	// absent on the performance lane means "now".
	Timestamp *int64 `json:"timestamp,omitempty"`

	// transport
	Action string `json:"action,omitempty"`
}

type serverWelcome struct {
	Type          string `json:"type"`
	ID            int    `json:"id"`
	MidiAvailable bool   `json:"midiAvailable"`
}

type webrtcAnswer struct {
	Type   string                    `json:"type"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type iceCandidateOut struct {
	Type      string                  `json:"type"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type statsFrame struct {
	Type         string             `json:"type"`
	ServerTime   int64              `json:"serverTime"`
	QueueLength  int                `json:"queueLength"`
	LaneCounters stats.LaneSnapshot `json:"laneCounters"`
	Clients      []clientStats      `json:"clients"`
}

type clientStats struct {
	ID             int     `json:"id"`
	BufferSizeMs   int     `json:"bufferSizeMs"`
	RTTP95         int64   `json:"rttP95"`
	RTTAvg         float64 `json:"rttAvg"`
	LatencyHistory []int64 `json:"latencyHistory"`
	DCState        string  `json:"dcState"`
	LastSeen       *int64  `json:"lastSeen"`
}

type statusReply struct {
	Server        string `json:"server"`
	MidiConnected bool   `json:"midiConnected"`
	Timestamp     int64  `json:"timestamp"`
}
