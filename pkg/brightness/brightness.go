package brightness

import (
	"fmt"

	"github.com/uptime-industries/nixie-clock/pkg/proto"
)

const (
	// bucketSize is the number of raw sensor counts per brightness level
	bucketSize = 20

	MinLevel proto.Level = 1
	MaxLevel proto.Level = proto.MaxLevel
)

// Estimate maps a raw light sensor reading (0-255) to a brightness level between MinLevel
// and MaxLevel. The lower bound keeps the tubes lit outside of the configured off period.
func Estimate(sensor uint8) proto.Level {
	level := proto.Level(sensor / bucketSize)
	if level > MaxLevel {
		return MaxLevel
	}
	if level < MinLevel {
		return MinLevel
	}
	return level
}

// Filter averages the last Window estimates to smooth out flicker from passing shadows.
// A window of one passes estimates through unchanged.
type Filter struct {
	window  int
	samples []proto.Level
	next    int
}

// NewFilter creates a moving average filter over window samples.
func NewFilter(window int) (*Filter, error) {
	if window < 1 {
		return nil, fmt.Errorf("filter window must be at least 1, got %d", window)
	}
	return &Filter{
		window:  window,
		samples: make([]proto.Level, 0, window),
	}, nil
}

// Update feeds a sensor reading into the filter and returns the smoothed level.
func (f *Filter) Update(sensor uint8) proto.Level {
	level := Estimate(sensor)
	if len(f.samples) < f.window {
		f.samples = append(f.samples, level)
	} else {
		f.samples[f.next] = level
	}
	f.next = (f.next + 1) % f.window

	sum := 0
	for _, s := range f.samples {
		sum += int(s)
	}
	// every sample is within bounds, so is the truncated mean
	return proto.Level(sum / len(f.samples))
}

// Reset drops all samples.
func (f *Filter) Reset() {
	f.samples = f.samples[:0]
	f.next = 0
}
