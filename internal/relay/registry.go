package relay

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Registry owns the client arena. Peer and data-channel callbacks hold
// client ids, not record pointers, and resolve them here; that keeps the
// records out of pion's closure graph.
type Registry struct {
	mu      sync.Mutex
	clients map[int]*Client
	counter atomic.Int32
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[int]*Client)}
}

// Add allocates the next id and registers a record for conn.
func (r *Registry) Add(conn *websocket.Conn) *Client {
	c := newClient(int(r.counter.Add(1)), conn)
	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()
	return c
}

func (r *Registry) Get(id int) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients[id]
}

// Remove drops the record and cascades into closing its handles.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	c := r.clients[id]
	delete(r.clients, id)
	r.mu.Unlock()
	if c != nil {
		c.close()
	}
}

// Snapshot returns the current clients in id order.
func (r *Registry) Snapshot() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Reset closes and forgets every client and restarts the id sequence.
// Test mode only.
func (r *Registry) Reset() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[int]*Client)
	r.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
	r.counter.Store(0)
}
