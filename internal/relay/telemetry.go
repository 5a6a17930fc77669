package relay

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	statsInterval   = time.Second
	summaryInterval = 5 * time.Second

	// latencyHistoryLen bounds the per-client history shipped in each
	// stats frame.
	latencyHistoryLen = 50
)

// RunTelemetry drives the two periodic jobs: the 1 s jcmp-stats broadcast
// to every signaling channel and the 5 s operator summary, which also
// resets the lane counters.
func (s *Server) RunTelemetry(ctx context.Context) {
	statsTicker := time.NewTicker(statsInterval)
	defer statsTicker.Stop()
	summaryTicker := time.NewTicker(summaryInterval)
	defer summaryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-statsTicker.C:
			s.broadcastStats()
		case <-summaryTicker.C:
			s.logSummary()
		}
	}
}

func (s *Server) statsSnapshot() statsFrame {
	clients := s.registry.Snapshot()
	frame := statsFrame{
		Type:         "jcmp-stats",
		ServerTime:   s.now().UnixMilli(),
		QueueLength:  s.queue.Len(),
		LaneCounters: s.counters.Snapshot(),
		Clients:      make([]clientStats, 0, len(clients)),
	}
	for _, c := range clients {
		frame.Clients = append(frame.Clients, c.snapshot())
	}
	return frame
}

func (s *Server) broadcastStats() {
	frame := s.statsSnapshot()
	for _, c := range s.registry.Snapshot() {
		if err := c.send(frame); err != nil {
			s.log.Debug("stats send failed", zap.Int("client", c.ID), zap.Error(err))
		}
	}
}

func (s *Server) logSummary() {
	lanes := s.counters.Snapshot()
	s.log.Info("summary",
		zap.Int64("rtcPerf", lanes.RTCPerf),
		zap.Int64("wsImmediate", lanes.WSImmediate),
		zap.Int64("lateDrops", s.counters.LateDrops()),
		zap.Int("queueLength", s.queue.Len()),
		zap.Uint64("queueEvicted", s.queue.Evicted()),
		zap.Int("clients", s.registry.Len()))
	s.counters.Reset()
}
