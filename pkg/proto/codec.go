package proto

import (
	"fmt"
)

// Transferer exchanges a single byte with the controller.
type Transferer interface {
	Transfer(b byte) (byte, error)
}

// Codec encodes the command set on top of a byte transport.
// It is not safe for concurrent use; the bus must only ever be driven from one goroutine.
type Codec struct {
	tr Transferer
}

// NewCodec returns a codec writing to the given transport.
func NewCodec(tr Transferer) *Codec {
	return &Codec{tr: tr}
}

// exchange sends a command followed by its payload and returns the reply to the payload.
func (c *Codec) exchange(cmd Command, payload uint8) (uint8, error) {
	if c.tr == nil {
		return 0, ErrNoTransport
	}
	if _, err := c.tr.Transfer(byte(cmd)); err != nil {
		return 0, fmt.Errorf("send %s command: %w", cmd, err)
	}
	reply, err := c.tr.Transfer(payload)
	if err != nil {
		return 0, fmt.Errorf("send %s payload: %w", cmd, err)
	}
	return reply, nil
}

// SendDisplay optionally sets the brightness and writes the tube digits.
// Brightness is sent first unless level is LevelUnchanged; levels above MaxLevel are clamped.
// Digits are written hours-tens first (opcode 4 down to 1); Skip and out of range values
// are not sent so the tube keeps its previous value.
func (c *Codec) SendDisplay(digits Digits, level Level) error {
	if level != LevelUnchanged {
		if err := c.SetBrightness(level); err != nil {
			return err
		}
	}
	for pos, d := range digits {
		if !d.Valid() {
			continue
		}
		if _, err := c.exchange(registerFor(pos), uint8(d)); err != nil {
			return err
		}
	}
	return nil
}

// SetBrightness sends the brightness command.
func (c *Codec) SetBrightness(level Level) error {
	if level > MaxLevel {
		level = MaxLevel
	} else if level < 0 {
		level = 0
	}
	_, err := c.exchange(CmdBrightness, uint8(level))
	return err
}

// ShiftIn writes d into the minutes-units tube and moves every tube one position to the
// left, using the previous register value returned by each write. The hours-tens value
// drops off the display.
func (c *Codec) ShiftIn(d Digit) error {
	if !d.Valid() {
		return fmt.Errorf("shift in %d: %w", d, ErrInvalidDigit)
	}
	out := uint8(d)
	for cmd := CmdMinutes; cmd <= CmdTensHours; cmd++ {
		prev, err := c.exchange(cmd, out)
		if err != nil {
			return err
		}
		out = prev
	}
	return nil
}

// ReadLightSensor returns the raw ambient light reading (0-255).
func (c *Codec) ReadLightSensor() (uint8, error) {
	return c.exchange(CmdGetLight, Dummy)
}

// ReadVersion returns the firmware revision, major version in the upper nibble.
func (c *Codec) ReadVersion() (uint8, error) {
	return c.exchange(CmdGetVersion, Dummy)
}

// PingWatchdog restarts the controller watchdog and reports whether it answered correctly.
// A false result with a nil error means the controller replied with something else.
func (c *Codec) PingWatchdog() (bool, error) {
	reply, err := c.exchange(CmdWatchdog, Dummy)
	if err != nil {
		return false, err
	}
	return reply == WatchdogReply, nil
}

// FormatVersion renders a firmware revision byte as "major.minor".
func FormatVersion(v uint8) string {
	return fmt.Sprintf("%d.%d", v>>4, v&0x0f)
}
