package effects

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/uptime-industries/nixie-clock/pkg/log"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
	"github.com/uptime-industries/nixie-clock/pkg/util"
	"go.uber.org/zap"
)

var (
	playedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "effects",
		Name:      "played_total",
		Help:      "Number of effects played to completion",
	}, []string{"effect"})
	abortedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "effects",
		Name:      "aborted_total",
		Help:      "Number of effects aborted by a display error",
	}, []string{"effect"})
)

// Display renders frames on the tubes
type Display interface {
	SendDisplay(digits proto.Digits, level proto.Level) error
	ShiftIn(d proto.Digit) error
}

// Kicker keeps the controller watchdog alive while an effect blocks the control loop
type Kicker interface {
	Kick(ctx context.Context)
}

// PlayerOpts are the options for the Player
type PlayerOpts struct {
	// Display receives the frames
	Display Display
	// Kicker is called for every step that requests a watchdog kick
	Kicker Kicker
	// Clock is the clock used for holds
	Clock util.Clock
}

// Player replays effects synchronously. Play blocks the caller for the whole effect, so
// nothing else touches the bus while frames are being rendered.
type Player struct {
	display Display
	kicker  Kicker
	clock   util.Clock
}

func NewPlayer(opts PlayerOpts) *Player {
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Player{
		display: opts.Display,
		kicker:  opts.Kicker,
		clock:   clock,
	}
}

// Play runs the effect to completion. There is no cancellation; a display error stops the
// effect and is returned.
func (p *Player) Play(ctx context.Context, effect Effect) error {
	log.FromContext(ctx).Debug("Playing effect",
		zap.String("effect", effect.Name),
		zap.Duration("duration", effect.Duration()),
	)

	for idx, step := range effect.Steps {
		if err := p.render(step); err != nil {
			abortedCounter.WithLabelValues(effect.Name).Inc()
			return fmt.Errorf("%s step %d: %w", effect.Name, idx, err)
		}
		if step.Kick && p.kicker != nil {
			p.kicker.Kick(ctx)
		}
		util.Sleep(p.clock, step.Hold)
	}

	playedCounter.WithLabelValues(effect.Name).Inc()
	return nil
}

func (p *Player) render(step Step) error {
	switch step.Op {
	case OpShow:
		return p.display.SendDisplay(step.Digits, step.Level)
	case OpShift:
		return p.display.ShiftIn(step.Digit)
	default:
		return nil
	}
}
