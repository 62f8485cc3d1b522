package proto

import (
	"errors"
	"fmt"
)

// Two-byte command protocol spoken by the tube controller.
// Every command is an opcode byte followed by a data byte. The bus is full-duplex, so the
// reply to the data byte carries the command's response (for digit writes that is the value
// the register held before the write). Payloads that are ignored by the controller are sent
// as Dummy.

var (
	ErrInvalidDigit = errors.New("invalid digit")
	ErrNoTransport  = errors.New("no transport")
)

// Command represents the opcode byte.
type Command uint8

const (
	CmdMinutes     Command = 1
	CmdTensMinutes Command = 2
	CmdHours       Command = 3
	CmdTensHours   Command = 4
	CmdBrightness  Command = 5
	CmdGetLight    Command = 6
	CmdGetVersion  Command = 7
	CmdWatchdog    Command = 85
)

const (
	// WatchdogReply is the only acceptable answer to CmdWatchdog.
	WatchdogReply uint8 = 170
	// Dummy is clocked out whenever the payload is ignored.
	Dummy uint8 = 255
)

func (c Command) String() string {
	switch c {
	case CmdMinutes:
		return "minutes"
	case CmdTensMinutes:
		return "tens_minutes"
	case CmdHours:
		return "hours"
	case CmdTensHours:
		return "tens_hours"
	case CmdBrightness:
		return "brightness"
	case CmdGetLight:
		return "get_light"
	case CmdGetVersion:
		return "get_version"
	case CmdWatchdog:
		return "watchdog"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Digit is the value shown on a single tube.
type Digit uint8

const (
	// Blank turns the tube off.
	Blank Digit = 10
	// Skip leaves the tube untouched; nothing is sent for it.
	Skip Digit = 0xff
)

// Valid reports whether the digit is transmitted (0-9 or Blank).
func (d Digit) Valid() bool {
	return d <= 9 || d == Blank
}

func (d Digit) String() string {
	switch {
	case d <= 9:
		return string(rune('0' + d))
	case d == Blank:
		return "_"
	case d == Skip:
		return "-"
	default:
		return "?"
	}
}

// Digits holds the four tube positions left to right:
// hours-tens, hours-units, minutes-tens, minutes-units.
type Digits [4]Digit

// AllBlank turns every tube off.
var AllBlank = Digits{Blank, Blank, Blank, Blank}

func (d Digits) String() string {
	return d[0].String() + d[1].String() + ":" + d[2].String() + d[3].String()
}

// ParseDigits is the inverse of Digits.String: four characters out of 0-9, "_" for Blank
// and "-" for Skip. Colons and spaces are ignored.
func ParseDigits(s string) (Digits, error) {
	var (
		d   Digits
		pos int
	)
	for _, r := range s {
		var digit Digit
		switch {
		case r == ':' || r == ' ':
			continue
		case r >= '0' && r <= '9':
			digit = Digit(r - '0')
		case r == '_':
			digit = Blank
		case r == '-':
			digit = Skip
		default:
			return Digits{}, fmt.Errorf("%w: %q in %q", ErrInvalidDigit, r, s)
		}
		if pos == len(d) {
			return Digits{}, fmt.Errorf("%w: %q has more than %d digits", ErrInvalidDigit, s, len(d))
		}
		d[pos] = digit
		pos++
	}
	if pos != len(d) {
		return Digits{}, fmt.Errorf("%w: %q has %d digits, want %d", ErrInvalidDigit, s, pos, len(d))
	}
	return d, nil
}

// Split returns the tens and units digit of a two digit value.
// A leading zero is replaced by Blank when blankLeadingZero is set.
func Split(v int, blankLeadingZero bool) (Digit, Digit) {
	tens, units := Digit(v/10%10), Digit(v%10)
	if tens == 0 && blankLeadingZero {
		tens = Blank
	}
	return tens, units
}

// Level is a brightness level between 0 and MaxLevel.
type Level int8

const (
	// MaxLevel is the brightest setting, level 0 turns the high voltage off.
	MaxLevel Level = 10
	// LevelUnchanged skips the brightness command.
	LevelUnchanged Level = -1
)

// registerFor maps a tube position (0 = hours-tens) to its write command.
func registerFor(position int) Command {
	return CmdTensHours - Command(position)
}
