// Package midisink owns the single local MIDI output. It is the only
// place that talks to the device; callers hand it 1-based channels and it
// translates at the boundary.
package midisink

import (
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/zap"
)

// preferredPatterns: outputs matching any of these are picked first.
var preferredPatterns = []string{"loopMIDI", "MIDI Controller", "Virtual", "IAC"}

const virtualPortName = "Web MIDI Controller"

// Sink wraps one MIDI output port. When no device can be opened it runs
// in null mode: the first discarded send logs a warning, the rest are
// silent. Send errors never reach callers.
//
// The mutex serializes the two call sites that reach the device, the
// dispatcher goroutine and the signaling immediate lane.
type Sink struct {
	mu         sync.Mutex
	drv        *rtmididrv.Driver
	out        drivers.Out
	send       func(midi.Message) error
	log        *zap.Logger
	nullWarned bool
}

// Open picks an output in preference order: a port whose name matches
// preferredPatterns, then a fresh virtual port, then the first enumerated
// port. When everything fails the sink operates in null mode.
func Open(log *zap.Logger) *Sink {
	s := &Sink{log: log}

	drv, err := rtmididrv.New()
	if err != nil {
		log.Warn("midi driver unavailable, running without output", zap.Error(err))
		return s
	}
	s.drv = drv

	out := pickPreferred(drv, log)
	if out == nil {
		if vout, verr := drv.OpenVirtualOut(virtualPortName); verr == nil {
			log.Info("created virtual midi output", zap.String("port", virtualPortName))
			out = vout
		} else {
			log.Warn("virtual midi output failed", zap.Error(verr))
		}
	}
	if out == nil {
		out = pickFirst(drv, log)
	}
	if out == nil {
		log.Warn("no midi output available, running in null mode")
		return s
	}

	send, err := midi.SendTo(out)
	if err != nil {
		log.Warn("midi sender setup failed, running in null mode",
			zap.String("port", out.String()), zap.Error(err))
		_ = out.Close()
		return s
	}

	s.out = out
	s.send = send
	log.Info("midi output connected", zap.String("port", out.String()))
	return s
}

func pickPreferred(drv *rtmididrv.Driver, log *zap.Logger) drivers.Out {
	outs, err := drv.Outs()
	if err != nil {
		log.Error("midi: list outputs failed", zap.Error(err))
		return nil
	}
	for _, out := range outs {
		for _, pat := range preferredPatterns {
			if containsCI(out.String(), pat) {
				if err := out.Open(); err != nil {
					log.Warn("midi: open failed", zap.String("port", out.String()), zap.Error(err))
					continue
				}
				return out
			}
		}
	}
	return nil
}

func pickFirst(drv *rtmididrv.Driver, log *zap.Logger) drivers.Out {
	outs, err := drv.Outs()
	if err != nil || len(outs) == 0 {
		return nil
	}
	out := outs[0]
	if err := out.Open(); err != nil {
		log.Warn("midi: open failed", zap.String("port", out.String()), zap.Error(err))
		return nil
	}
	return out
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Connected reports whether a real output is attached.
func (s *Sink) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send != nil
}

// PortName returns the attached output's name, "" in null mode.
func (s *Sink) PortName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return ""
	}
	return s.out.String()
}

// Close releases the port and the driver.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		_ = s.out.Close()
		s.out = nil
		s.send = nil
	}
	if s.drv != nil {
		_ = s.drv.Close()
		s.drv = nil
	}
}

func (s *Sink) NoteOn(channel, note, velocity uint8) {
	s.emit(midi.NoteOn(deviceChannel(channel), note, velocity))
}

func (s *Sink) NoteOff(channel, note, velocity uint8) {
	if velocity > 0 {
		s.emit(midi.NoteOffVelocity(deviceChannel(channel), note, velocity))
		return
	}
	s.emit(midi.NoteOff(deviceChannel(channel), note))
}

func (s *Sink) ControlChange(channel, controller, value uint8) {
	s.emit(midi.ControlChange(deviceChannel(channel), controller, value))
}

func (s *Sink) ProgramChange(channel, program uint8) {
	s.emit(midi.ProgramChange(deviceChannel(channel), program))
}

func (s *Sink) TransportStart()    { s.emit(midi.Start()) }
func (s *Sink) TransportStop()     { s.emit(midi.Stop()) }
func (s *Sink) TransportContinue() { s.emit(midi.Continue()) }

// deviceChannel maps the 1-based external channel onto the 0-based wire
// channel, clamping junk input into range.
func deviceChannel(channel uint8) uint8 {
	if channel < 1 {
		return 0
	}
	if channel > 16 {
		return 15
	}
	return channel - 1
}

func (s *Sink) emit(msg midi.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.send == nil {
		if !s.nullWarned {
			s.log.Warn("no midi output attached, discarding events")
			s.nullWarned = true
		}
		return
	}
	if err := s.send(msg); err != nil {
		s.log.Error("midi send failed", zap.Error(err))
	}
}
