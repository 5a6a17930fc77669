package relay

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jenojiji/jcmp-relay/internal/schedule"
	"github.com/jenojiji/jcmp-relay/internal/stats"
)

type sinkCall struct {
	op   string
	args [3]uint8
}

type fakeSink struct {
	calls []sinkCall
}

func (f *fakeSink) NoteOn(channel, note, velocity uint8) {
	f.calls = append(f.calls, sinkCall{"noteOn", [3]uint8{channel, note, velocity}})
}

func (f *fakeSink) NoteOff(channel, note, velocity uint8) {
	f.calls = append(f.calls, sinkCall{"noteOff", [3]uint8{channel, note, velocity}})
}

func (f *fakeSink) ControlChange(channel, controller, value uint8) {
	f.calls = append(f.calls, sinkCall{"controlChange", [3]uint8{channel, controller, value}})
}

func (f *fakeSink) ProgramChange(channel, program uint8) {
	f.calls = append(f.calls, sinkCall{"programChange", [3]uint8{channel, program, 0}})
}

func (f *fakeSink) TransportStart()    { f.calls = append(f.calls, sinkCall{op: "start"}) }
func (f *fakeSink) TransportStop()     { f.calls = append(f.calls, sinkCall{op: "stop"}) }
func (f *fakeSink) TransportContinue() { f.calls = append(f.calls, sinkCall{op: "continue"}) }
func (f *fakeSink) Connected() bool    { return false }

// newTestServer pins the clock to nowMS.
func newTestServer(nowMS int64) (*Server, *fakeSink) {
	sink := &fakeSink{}
	s := NewServer(zap.NewNop(), NewRegistry(), schedule.NewQueue(), &stats.Counters{}, sink, false)
	s.now = func() time.Time { return time.UnixMilli(nowMS) }
	return s, sink
}

func TestImmediateNoteOnPlaysSynchronously(t *testing.T) {
	s, sink := newTestServer(1000)
	c := s.registry.Add(nil)

	s.handleSignal(c, []byte(`{"type":"noteOn","channel":1,"note":60,"velocity":100}`))

	if len(sink.calls) != 1 {
		t.Fatalf("sink calls = %d, want 1", len(sink.calls))
	}
	got := sink.calls[0]
	if got.op != "noteOn" || got.args != [3]uint8{1, 60, 100} {
		t.Fatalf("got %+v, want noteOn(1,60,100)", got)
	}
	if snap := s.counters.Snapshot(); snap.WSImmediate != 1 {
		t.Fatalf("wsImmediate = %d, want 1", snap.WSImmediate)
	}
	if s.queue.Len() != 0 {
		t.Fatal("immediate event must not be queued")
	}
}

func TestImmediateLanePreservesArrivalOrder(t *testing.T) {
	s, sink := newTestServer(1000)
	c := s.registry.Add(nil)

	for i := 0; i < 3; i++ {
		s.handleSignal(c, []byte(fmt.Sprintf(`{"type":"noteOn","channel":1,"note":%d,"velocity":100}`, 60+i)))
	}

	for i, call := range sink.calls {
		if call.args[1] != uint8(60+i) {
			t.Fatalf("call %d note = %d, want %d", i, call.args[1], 60+i)
		}
	}
}

func TestMalformedFrameIsDropped(t *testing.T) {
	s, sink := newTestServer(1000)
	c := s.registry.Add(nil)

	s.handleSignal(c, []byte(`{not json`))

	if len(sink.calls) != 0 {
		t.Fatal("malformed frame reached the sink")
	}
}

func TestUnknownTypeIsIgnored(t *testing.T) {
	s, sink := newTestServer(1000)
	c := s.registry.Add(nil)

	s.handleSignal(c, []byte(`{"type":"sing-to-me"}`))

	if len(sink.calls) != 0 {
		t.Fatal("unknown type reached the sink")
	}
}

func TestTransportMapping(t *testing.T) {
	s, sink := newTestServer(1000)
	c := s.registry.Add(nil)

	for _, action := range []string{"play", "stop", "pause", "record"} {
		s.handleSignal(c, []byte(fmt.Sprintf(`{"type":"transport","action":"%s"}`, action)))
	}

	want := []sinkCall{
		{op: "start"},
		{op: "stop"},
		{op: "continue"},
		{"controlChange", [3]uint8{1, 119, 127}},
	}
	if len(sink.calls) != len(want) {
		t.Fatalf("sink calls = %d, want %d", len(sink.calls), len(want))
	}
	for i, w := range want {
		if sink.calls[i] != w {
			t.Fatalf("call %d = %+v, want %+v", i, sink.calls[i], w)
		}
	}
}

func TestImmediateControlAndProgramChange(t *testing.T) {
	s, sink := newTestServer(1000)
	c := s.registry.Add(nil)

	s.handleSignal(c, []byte(`{"type":"controlChange","channel":2,"control":7,"value":64}`))
	s.handleSignal(c, []byte(`{"type":"programChange","channel":3,"program":12}`))

	want := []sinkCall{
		{"controlChange", [3]uint8{2, 7, 64}},
		{"programChange", [3]uint8{3, 12, 0}},
	}
	for i, w := range want {
		if sink.calls[i] != w {
			t.Fatalf("call %d = %+v, want %+v", i, sink.calls[i], w)
		}
	}
}
