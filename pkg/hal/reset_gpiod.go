//go:build linux

package hal

import (
	"errors"
	"time"

	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
)

const (
	defaultResetOffset = rpi.GPIO8

	// The controller needs the reset pulse to be held for at least two clock cycles
	resetPulse = time.Millisecond
)

type gpioResetLine struct {
	chip *gpiod.Chip
	line *gpiod.Line
}

// NewGPIOResetLine requests the reset line as an output. The line is driven high
// (controller running) until Reset is called.
func NewGPIOResetLine(chipName string, offset int) (ResetLine, error) {
	chip, err := gpiod.NewChip(chipName, gpiod.WithConsumer("nixie-clock"))
	if err != nil {
		return nil, err
	}
	line, err := chip.RequestLine(offset, gpiod.AsOutput(1))
	if err != nil {
		chip.Close()
		return nil, err
	}
	return &gpioResetLine{chip: chip, line: line}, nil
}

// Reset drives the line high, low, then high again.
func (g *gpioResetLine) Reset() error {
	for _, v := range []int{1, 0, 1} {
		if err := g.line.SetValue(v); err != nil {
			return err
		}
		time.Sleep(resetPulse)
	}
	return nil
}

func (g *gpioResetLine) Close() error {
	return errors.Join(g.line.Close(), g.chip.Close())
}
