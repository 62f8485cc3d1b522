package controller_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/nixie-clock/internal/controller"
	"github.com/uptime-industries/nixie-clock/pkg/config"
	"github.com/uptime-industries/nixie-clock/pkg/hal"
	"github.com/uptime-industries/nixie-clock/pkg/log"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
	"github.com/uptime-industries/nixie-clock/pkg/util"
	"go.uber.org/zap"
)

const (
	slotMachineDuration = 8 * time.Second
	dateRevealDuration  = 10 * time.Second
)

func testContext() context.Context {
	return log.IntoContext(context.Background(), zap.NewNop())
}

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 5, hour, minute, 0, 0, time.UTC)
}

// clockConfig has no effect due at minutes not divisible by 5 and no off period
func clockConfig() config.ClockConfig {
	return config.ClockConfig{
		SlotMachineInterval: 5,
	}
}

func newClock(t *testing.T, now time.Time, cfg config.ClockConfig) (*util.ManualClock, *hal.Simulator, *controller.ClockContext) {
	t.Helper()

	clk := util.NewManualClock(now)
	sim := hal.NewSimulator(hal.SimulatorOpts{Clock: clk, Light: 100})
	cc, err := controller.NewClockContext(controller.ClockContextOpts{
		Bus:      sim,
		Clock:    clk,
		Location: time.UTC,
		Config:   cfg,
	})
	require.NoError(t, err)
	return clk, sim, cc
}

func TestNewClockContext_RequiresBus(t *testing.T) {
	t.Parallel()

	_, err := controller.NewClockContext(controller.ClockContextOpts{})
	assert.ErrorIs(t, err, controller.ErrNoBus)
}

func TestDisplayTask_RendersTime(t *testing.T) {
	t.Parallel()

	clk, sim, cc := newClock(t, at(12, 34), clockConfig())

	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, proto.Digits{1, 2, 3, 4}, sim.Display())
	assert.Equal(t, proto.Digits{1, 2, 3, 4}, cc.Digits)
	// 100 / 20
	assert.Equal(t, uint8(5), sim.Brightness())
	assert.Zero(t, clk.Slept())

	sim.SetLight(0)
	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, uint8(1), sim.Brightness())
}

func TestDisplayTask_TwelveHour(t *testing.T) {
	t.Parallel()

	cfg := clockConfig()
	cfg.TwelveHour = true
	_, sim, cc := newClock(t, at(13, 4), cfg)

	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, proto.Digits{proto.Blank, 1, 0, 4}, sim.Display())
}

func TestDisplayTask_OffPeriod(t *testing.T) {
	t.Parallel()

	cfg := clockConfig()
	cfg.OffPeriod = config.OffPeriod{
		Start: config.HourMinute{Hour: 23},
		End:   config.HourMinute{Hour: 6},
	}
	clk, sim, cc := newClock(t, at(22, 59), cfg)
	sim.SetLight(160)

	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, proto.Digits{2, 2, 5, 9}, sim.Display())
	assert.Equal(t, uint8(8), sim.Brightness())

	clk.Set(at(23, 30))
	transfers := sim.Transfers()
	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, proto.AllBlank, sim.Display())
	// brightness untouched, no light sensor read
	assert.Equal(t, uint8(8), sim.Brightness())
	assert.Equal(t, 8, sim.Transfers()-transfers)
	// no digits were computed
	assert.Equal(t, proto.Digits{2, 2, 5, 9}, cc.Digits)

	clk.Set(at(6, 0))
	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, proto.Digits{0, 6, 0, 0}, sim.Display())
	// minute 0 is a slot machine boundary for every interval
	assert.Equal(t, slotMachineDuration, clk.Slept())
}

func TestDisplayTask_SlotMachineOncePerBoundary(t *testing.T) {
	t.Parallel()

	cfg := clockConfig()
	cfg.SlotMachineInterval = 2
	clk, sim, cc := newClock(t, at(12, 34), cfg)

	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, slotMachineDuration, clk.Slept())
	assert.Equal(t, controller.GateLatched, cc.SlotGate)
	assert.Equal(t, proto.Digits{1, 2, 3, 4}, sim.Display())
	// the watchdog was kicked while spinning
	assert.False(t, sim.WatchdogExpired())

	// still 12:34
	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, slotMachineDuration, clk.Slept())

	clk.Set(at(12, 35))
	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, controller.GateIdle, cc.SlotGate)
	assert.Equal(t, slotMachineDuration, clk.Slept())

	clk.Set(at(12, 36))
	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, 2*slotMachineDuration, clk.Slept())
	assert.Equal(t, proto.Digits{1, 2, 3, 6}, sim.Display())
}

func TestDisplayTask_SlotMachineEveryMinuteRunsOnce(t *testing.T) {
	t.Parallel()

	cfg := clockConfig()
	cfg.SlotMachineInterval = 1
	clk, _, cc := newClock(t, at(12, 34), cfg)

	for minute := 34; minute < 40; minute++ {
		clk.Set(at(12, minute))
		require.NoError(t, controller.DisplayTask(testContext(), cc))
	}
	// the gate never re-arms because the condition never clears
	assert.Equal(t, slotMachineDuration, clk.Slept())
}

func TestDisplayTask_DateOnTheHour(t *testing.T) {
	t.Parallel()

	cfg := clockConfig()
	cfg.SlotMachineInterval = 2
	cfg.ShowDate = true
	cfg.TwelveHour = true
	clk, sim, cc := newClock(t, at(13, 0), cfg)

	require.NoError(t, controller.DisplayTask(testContext(), cc))
	// the date replaces the slot machine
	assert.Equal(t, dateRevealDuration, clk.Slept())
	assert.Equal(t, controller.GateLatched, cc.DateGate)
	assert.Equal(t, controller.GateLatched, cc.SlotGate)
	assert.Equal(t, proto.Digits{proto.Blank, 1, 0, 0}, sim.Display())
	assert.False(t, sim.WatchdogExpired())

	// 13:00:10, same minute
	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, dateRevealDuration, clk.Slept())

	clk.Set(at(13, 1))
	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, controller.GateIdle, cc.DateGate)
	assert.Equal(t, controller.GateIdle, cc.SlotGate)

	clk.Set(at(13, 2))
	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, dateRevealDuration+slotMachineDuration, clk.Slept())
}

func TestDisplayTask_NoDateWhenDisabled(t *testing.T) {
	t.Parallel()

	cfg := clockConfig()
	cfg.ShowDate = false
	clk, _, cc := newClock(t, at(13, 0), cfg)

	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, controller.GateIdle, cc.DateGate)
	assert.Equal(t, slotMachineDuration, clk.Slept())
}

func TestDisplayTask_AppliesPendingConfig(t *testing.T) {
	t.Parallel()

	_, sim, cc := newClock(t, at(13, 4), clockConfig())

	next := clockConfig()
	next.TwelveHour = true
	cc.Propose(next)
	pending, ok := cc.Pending()
	require.True(t, ok)
	assert.Equal(t, next, pending)

	require.NoError(t, controller.DisplayTask(testContext(), cc))
	_, ok = cc.Pending()
	assert.False(t, ok)
	assert.Equal(t, next, cc.Config)
	assert.Equal(t, proto.Digits{proto.Blank, 1, 0, 4}, sim.Display())
}

func TestDisplayTask_TransportErrorResetsController(t *testing.T) {
	t.Parallel()

	_, sim, cc := newClock(t, at(12, 34), clockConfig())
	sim.InjectFault(errors.New("bus failure"))

	assert.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, 1, sim.Resets())

	// the next tick works again
	assert.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, proto.Digits{1, 2, 3, 4}, sim.Display())
	assert.Equal(t, 1, sim.Resets())
}

func TestDisplayTask_EffectErrorResetsController(t *testing.T) {
	t.Parallel()

	cfg := clockConfig()
	cfg.SlotMachineInterval = 2
	clk, sim, cc := newClock(t, at(12, 34), cfg)
	sim.InjectFault(errors.New("bus failure"))

	assert.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, 1, sim.Resets())
	assert.Zero(t, clk.Slept())
	// no retry within the same minute
	assert.Equal(t, controller.GateLatched, cc.SlotGate)
}

func writeClockConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigurationTask(t *testing.T) {
	t.Parallel()

	path := writeClockConfig(t, `
time_format: "12"
effects:
  slot_machine: 10
display_date: "yes"
display_off:
  start_time: "23:00"
  end_time: "06:00"
`)
	_, _, cc := newClock(t, at(12, 34), clockConfig())
	cc.Source = config.NewSource(path)

	require.NoError(t, controller.ConfigurationTask(testContext(), cc))
	pending, ok := cc.Pending()
	require.True(t, ok)
	assert.Equal(t, config.ClockConfig{
		TwelveHour:          true,
		SlotMachineInterval: 10,
		ShowDate:            true,
		OffPeriod: config.OffPeriod{
			Start: config.HourMinute{Hour: 23},
			End:   config.HourMinute{Hour: 6},
		},
	}, pending)
	// the active snapshot only changes on the display tick
	assert.Equal(t, clockConfig(), cc.Config)

	require.NoError(t, controller.DisplayTask(testContext(), cc))
	assert.Equal(t, pending, cc.Config)

	// unchanged file is not read again
	require.NoError(t, controller.ConfigurationTask(testContext(), cc))
	_, ok = cc.Pending()
	assert.False(t, ok)
}

func TestConfigurationTask_MalformedFieldsKeepPreviousValues(t *testing.T) {
	t.Parallel()

	path := writeClockConfig(t, `
time_format: "13"
effects:
  slot_machine: 3
display_date: "perhaps"
`)
	_, _, cc := newClock(t, at(12, 34), clockConfig())
	cc.Source = config.NewSource(path)

	require.NoError(t, controller.ConfigurationTask(testContext(), cc))
	pending, ok := cc.Pending()
	require.True(t, ok)

	expected := clockConfig()
	expected.SlotMachineInterval = 3
	assert.Equal(t, expected, pending)
}

func TestConfigurationTask_UnreadableFile(t *testing.T) {
	t.Parallel()

	path := writeClockConfig(t, "time_format: [")
	_, _, cc := newClock(t, at(12, 34), clockConfig())
	cc.Source = config.NewSource(path)

	require.NoError(t, controller.ConfigurationTask(testContext(), cc))
	_, ok := cc.Pending()
	assert.False(t, ok)
}

func TestConfigurationTask_NoSource(t *testing.T) {
	t.Parallel()

	_, _, cc := newClock(t, at(12, 34), clockConfig())
	require.NoError(t, controller.ConfigurationTask(testContext(), cc))
	_, ok := cc.Pending()
	assert.False(t, ok)
}

func TestMetricsTask(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nixie.prom")
	require.NoError(t, controller.MetricsTask(path)(testContext(), nil))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "nixie_clock_brightness_level")
}
