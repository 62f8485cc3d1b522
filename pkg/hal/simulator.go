package hal

import (
	"sync"
	"time"

	"github.com/uptime-industries/nixie-clock/pkg/proto"
	"github.com/uptime-industries/nixie-clock/pkg/util"
)

const (
	// SimulatedVersion is reported for CmdGetVersion (1.0)
	SimulatedVersion uint8 = 0x10
	// WatchdogExpiry is the time after which the controller turns the high voltage off
	WatchdogExpiry = 5 * time.Second
)

// fails if Simulator does not implement Transport or ResetLine
var (
	_ Transport = &Simulator{}
	_ ResetLine = &Simulator{}
)

type SimulatorOpts struct {
	// Clock drives the watchdog expiry, defaults to the real clock
	Clock util.Clock
	// Light is the initial ambient light reading
	Light uint8
}

// Simulator emulates the tube controller firmware at the byte level: the reply to every
// byte is whatever the controller loaded into its shift register after the previous byte.
type Simulator struct {
	mu    sync.Mutex
	clock util.Clock

	// registers in firmware order: minutes, tens minutes, hours, tens hours
	registers  [4]uint8
	brightness uint8
	light      uint8

	shiftReg   uint8
	secondByte bool
	cmd        proto.Command

	lastKick      time.Time
	watchdogReply uint8

	fault     error
	resets    int
	transfers int
}

func NewSimulator(opts SimulatorOpts) *Simulator {
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	s := &Simulator{
		clock:         clock,
		light:         opts.Light,
		watchdogReply: proto.WatchdogReply,
	}
	s.powerOn()
	return s
}

func (s *Simulator) powerOn() {
	s.registers = [4]uint8{}
	s.brightness = 1
	s.shiftReg = proto.Dummy
	s.secondByte = false
	s.lastKick = s.clock.Now()
}

func (s *Simulator) Transfer(b byte) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fault != nil {
		err := s.fault
		s.fault = nil
		return 0, err
	}
	s.transfers++

	reply := s.shiftReg
	// The received byte stays in the shift register unless the firmware loads a response
	s.shiftReg = b

	if !s.secondByte {
		s.cmd = proto.Command(b)
		switch s.cmd {
		case proto.CmdMinutes, proto.CmdTensMinutes, proto.CmdHours, proto.CmdTensHours:
			s.shiftReg = s.registers[s.cmd-proto.CmdMinutes]
		case proto.CmdBrightness:
			s.shiftReg = proto.Dummy
		case proto.CmdGetLight:
			s.shiftReg = s.light
		case proto.CmdGetVersion:
			s.shiftReg = SimulatedVersion
		case proto.CmdWatchdog:
			s.shiftReg = s.watchdogReply
			s.lastKick = s.clock.Now()
		}
	} else {
		switch s.cmd {
		case proto.CmdMinutes, proto.CmdTensMinutes, proto.CmdHours, proto.CmdTensHours:
			s.registers[s.cmd-proto.CmdMinutes] = b
		case proto.CmdBrightness:
			s.brightness = b
		}
	}
	s.secondByte = !s.secondByte

	return reply, nil
}

// Reset emulates a pulse on the controller reset pin.
func (s *Simulator) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.powerOn()
	return nil
}

func (s *Simulator) Close() error {
	return nil
}

// Display returns the tube registers left to right.
func (s *Simulator) Display() proto.Digits {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.registers
	return proto.Digits{proto.Digit(r[3]), proto.Digit(r[2]), proto.Digit(r[1]), proto.Digit(r[0])}
}

// Brightness returns the last brightness level received.
func (s *Simulator) Brightness() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// WatchdogExpired reports whether the controller has gone without a ping for WatchdogExpiry.
func (s *Simulator) WatchdogExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Now().Sub(s.lastKick) >= WatchdogExpiry
}

// Lit reports whether the high voltage supply is enabled.
func (s *Simulator) Lit() bool {
	expired := s.WatchdogExpired()
	return !expired && s.Brightness() > 0
}

// SetLight sets the ambient light reading.
func (s *Simulator) SetLight(v uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.light = v
}

// SetWatchdogReply changes the answer to watchdog pings, e.g. to emulate a hung controller.
func (s *Simulator) SetWatchdogReply(v uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchdogReply = v
}

// InjectFault makes the next transfer fail with err.
func (s *Simulator) InjectFault(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = err
}

// Resets returns how many times Reset was called.
func (s *Simulator) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// Transfers returns the number of successful byte exchanges.
func (s *Simulator) Transfers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transfers
}
