package controller

import (
	"context"
	"errors"

	"github.com/uptime-industries/nixie-clock/pkg/log"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
	"go.uber.org/zap"
)

var ErrWatchdogMismatch = errors.New("watchdog reply mismatch")

// Resetter pulses the controller reset line.
type Resetter interface {
	Reset() error
}

// Watchdog keeps the controller watchdog alive and resets the controller when it stops
// answering. It is the only recovery path of the clock: transport errors are handled the
// same way as a wrong reply.
type Watchdog struct {
	codec    *proto.Codec
	resetter Resetter
}

func NewWatchdog(codec *proto.Codec, resetter Resetter) *Watchdog {
	return &Watchdog{codec: codec, resetter: resetter}
}

// Check pings the controller and resets it if the reply is wrong or the exchange failed.
// It reports whether the controller answered correctly.
func (w *Watchdog) Check(ctx context.Context) bool {
	ok, err := w.codec.PingWatchdog()
	switch {
	case err != nil:
		watchdogPings.WithLabelValues("error").Inc()
		w.Recover(ctx, err)
		return false
	case !ok:
		watchdogPings.WithLabelValues("mismatch").Inc()
		w.Recover(ctx, ErrWatchdogMismatch)
		return false
	default:
		watchdogPings.WithLabelValues("ok").Inc()
		return true
	}
}

// Kick is Check for callers that do not care about the outcome, e.g. effects.
func (w *Watchdog) Kick(ctx context.Context) {
	w.Check(ctx)
}

// Recover resets the controller after cause. Reset failures are logged, the next watchdog
// check tries again.
func (w *Watchdog) Recover(ctx context.Context, cause error) {
	reason := "transport_error"
	if errors.Is(cause, ErrWatchdogMismatch) {
		reason = "watchdog_mismatch"
	}
	recoveries.WithLabelValues(reason).Inc()
	watchdogResets.Inc()

	log.FromContext(ctx).Warn("Resetting tube controller", zap.String("reason", reason), zap.Error(cause))
	if err := w.resetter.Reset(); err != nil {
		log.FromContext(ctx).Error("Failed to reset tube controller", zap.Error(err))
	}
}
