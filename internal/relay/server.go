// Package relay implements the signaling endpoint, the peer negotiator
// and the client registry of the MIDI relay server. Performance events
// flow from here into the playback queue; immediate-lane events go
// straight to the MIDI sink.
package relay

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"

	"github.com/jenojiji/jcmp-relay/internal/schedule"
	"github.com/jenojiji/jcmp-relay/internal/stats"
)

const serverName = "jcmp-relay"

// MIDISink is the device boundary as the relay sees it: the scheduled
// event surface plus the transport controls the immediate lane drives
// directly.
type MIDISink interface {
	schedule.Sink
	TransportStart()
	TransportStop()
	TransportContinue()
	Connected() bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server ties the registry, the playback queue and the sink together and
// serves the signaling and status endpoints.
type Server struct {
	log      *zap.Logger
	registry *Registry
	queue    *schedule.Queue
	counters *stats.Counters
	sink     MIDISink
	api      *webrtc.API
	debug    bool
	now      func() time.Time
}

func NewServer(log *zap.Logger, reg *Registry, queue *schedule.Queue, counters *stats.Counters, sink MIDISink, debug bool) *Server {
	se := webrtc.SettingEngine{}
	se.LoggerFactory = &pionLogFactory{log: log.Named("pion")}
	return &Server{
		log:      log,
		registry: reg,
		queue:    queue,
		counters: counters,
		sink:     sink,
		api:      webrtc.NewAPI(webrtc.WithSettingEngine(se)),
		debug:    debug,
		now:      time.Now,
	}
}

// HandleWS upgrades a signaling connection and pumps its messages until
// the client goes away. One goroutine per connection.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := s.registry.Add(conn)
	s.log.Info("client connected", zap.Int("id", client.ID))

	defer func() {
		s.registry.Remove(client.ID)
		s.log.Info("client disconnected", zap.Int("id", client.ID))
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleSignal(client, raw)
	}
}

// HandleStatus answers the HTTP health probe on the shared listener.
func (s *Server) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusReply{
		Server:        serverName,
		MidiConnected: s.sink.Connected(),
		Timestamp:     s.now().UnixMilli(),
	})
}
