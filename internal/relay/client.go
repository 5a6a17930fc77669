package relay

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/jenojiji/jcmp-relay/internal/schedule"
)

// Client is one connected browser. The signaling conn lives for the
// record's whole lifetime; the peer is bound when an offer round starts and
// cleared again if it fails, and the data channel is bound once the remote
// opens it.
type Client struct {
	ID int

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu sync.Mutex
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	window *schedule.LatencyWindow

	// Unix ms of the last performance packet, 0 = never.
	lastSeen atomic.Int64
}

func newClient(id int, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		conn:   conn,
		window: schedule.NewLatencyWindow(),
	}
}

// send marshals v and writes one text frame. Writes from the negotiator
// callbacks and the telemetry ticker race the signaling handler, hence
// the write mutex.
func (c *Client) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// setPeer swaps in a new peer connection, closing any prior one.
func (c *Client) setPeer(pc *webrtc.PeerConnection) {
	c.mu.Lock()
	old := c.pc
	c.pc = pc
	c.dc = nil
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

func (c *Client) peer() *webrtc.PeerConnection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pc
}

func (c *Client) setDataChannel(dc *webrtc.DataChannel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dc = dc
}

// dcState reports the data channel state for telemetry, "none" when no
// channel is attached to the current peer.
func (c *Client) dcState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dc == nil {
		return "none"
	}
	return c.dc.ReadyState().String()
}

// close tears down the peer and the signaling conn. Idempotent.
func (c *Client) close() {
	c.mu.Lock()
	pc := c.pc
	c.pc = nil
	c.dc = nil
	c.mu.Unlock()
	if pc != nil {
		_ = pc.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Client) snapshot() clientStats {
	cs := clientStats{
		ID:             c.ID,
		BufferSizeMs:   c.window.Depth(),
		RTTP95:         c.window.P95(),
		RTTAvg:         c.window.Avg(),
		LatencyHistory: c.window.History(latencyHistoryLen),
		DCState:        c.dcState(),
	}
	if ls := c.lastSeen.Load(); ls != 0 {
		cs.LastSeen = &ls
	}
	return cs
}
