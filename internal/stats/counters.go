// Package stats holds the process-wide lane counters sampled by the
// telemetry broadcaster and the operator summary log.
package stats

import "sync/atomic"

// LaneSnapshot is the wire shape of the per-lane counters inside a
// jcmp-stats frame.
type LaneSnapshot struct {
	RTCPerf     int64 `json:"rtcPerf"`
	WSImmediate int64 `json:"wsImmediate"`
}

// Counters accumulates per-lane event counts plus the late-drop count.
// The summary logger resets them every 5 seconds, so the values clients
// see are windowed after the first reset.
type Counters struct {
	rtcPerf     atomic.Int64
	wsImmediate atomic.Int64
	lateDrops   atomic.Int64
}

func (c *Counters) AddRTCPerf()     { c.rtcPerf.Add(1) }
func (c *Counters) AddWSImmediate() { c.wsImmediate.Add(1) }
func (c *Counters) AddLateDrop()    { c.lateDrops.Add(1) }

func (c *Counters) LateDrops() int64 { return c.lateDrops.Load() }

func (c *Counters) Snapshot() LaneSnapshot {
	return LaneSnapshot{
		RTCPerf:     c.rtcPerf.Load(),
		WSImmediate: c.wsImmediate.Load(),
	}
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.rtcPerf.Store(0)
	c.wsImmediate.Store(0)
	c.lateDrops.Store(0)
}
