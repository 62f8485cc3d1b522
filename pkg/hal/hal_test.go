package hal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/nixie-clock/pkg/hal"
	"github.com/uptime-industries/nixie-clock/pkg/log"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
	"github.com/uptime-industries/nixie-clock/pkg/util"
	"go.uber.org/zap"
)

func testContext() context.Context {
	return log.IntoContext(context.Background(), zap.NewNop())
}

func TestOpen_Simulated(t *testing.T) {
	t.Parallel()

	opts := hal.DefaultOpts()
	opts.Transport = hal.TransportSimulated

	p, err := hal.Open(testContext(), opts)
	require.NoError(t, err)
	assert.Same(t, p.Transport, p.ResetLine)
	assert.NoError(t, p.Reset())
	assert.NoError(t, p.Close())
}

func TestOpen_Unsupported(t *testing.T) {
	t.Parallel()

	opts := hal.DefaultOpts()
	opts.Transport = "i2c"

	_, err := hal.Open(testContext(), opts)
	assert.ErrorIs(t, err, hal.ErrUnsupportedTransport)
}

func TestPeripheral_DelegatesAndCloses(t *testing.T) {
	t.Parallel()

	tr := &hal.TransportMock{}
	tr.On("Transfer", byte(0x55)).Return(byte(0xaa), nil).Once()
	tr.On("Close").Return(errors.New("transport close")).Once()
	rst := &hal.ResetLineMock{}
	rst.On("Reset").Return(nil).Once()
	rst.On("Close").Return(errors.New("reset close")).Once()

	p := &hal.Peripheral{Transport: tr, ResetLine: rst}
	reply, err := p.Transfer(0x55)
	require.NoError(t, err)
	assert.Equal(t, byte(0xaa), reply)
	assert.NoError(t, p.Reset())

	// both are closed, both errors reported
	err = p.Close()
	assert.ErrorContains(t, err, "transport close")
	assert.ErrorContains(t, err, "reset close")

	tr.AssertExpectations(t)
	rst.AssertExpectations(t)
}

func TestSimulator_RepliesLagOneByte(t *testing.T) {
	t.Parallel()

	sim := hal.NewSimulator(hal.SimulatorOpts{Light: 123})

	testCases := []struct {
		send     byte
		expected byte
	}{
		// power on value of the shift register
		{byte(proto.CmdGetLight), proto.Dummy},
		{proto.Dummy, 123},
		{byte(proto.CmdWatchdog), proto.Dummy},
		{proto.Dummy, proto.WatchdogReply},
		{byte(proto.CmdGetVersion), proto.Dummy},
		{proto.Dummy, hal.SimulatedVersion},
		// write 7 to minutes, the old value 0 comes back
		{byte(proto.CmdMinutes), proto.Dummy},
		{7, 0},
		// the received byte is echoed unless a response was loaded
		{byte(proto.CmdMinutes), 7},
		{9, 7},
	}
	for idx, tc := range testCases {
		reply, err := sim.Transfer(tc.send)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, reply, "transfer %d", idx)
	}
	assert.Equal(t, proto.Digits{0, 0, 0, 9}, sim.Display())
	assert.Equal(t, len(testCases), sim.Transfers())
}

func TestSimulator_ResetRestoresPowerOnState(t *testing.T) {
	t.Parallel()

	sim := hal.NewSimulator(hal.SimulatorOpts{})
	codec := proto.NewCodec(sim)
	require.NoError(t, codec.SendDisplay(proto.Digits{1, 2, 3, 4}, 9))
	assert.Equal(t, uint8(9), sim.Brightness())

	require.NoError(t, sim.Reset())
	assert.Equal(t, proto.Digits{0, 0, 0, 0}, sim.Display())
	assert.Equal(t, uint8(1), sim.Brightness())
	assert.Equal(t, 1, sim.Resets())
}

func TestSimulator_Watchdog(t *testing.T) {
	t.Parallel()

	clk := util.NewManualClock(time.Unix(0, 0))
	sim := hal.NewSimulator(hal.SimulatorOpts{Clock: clk})
	codec := proto.NewCodec(sim)
	assert.True(t, sim.Lit())

	clk.Advance(4 * time.Second)
	ok, err := codec.PingWatchdog()
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(4 * time.Second)
	assert.False(t, sim.WatchdogExpired())
	clk.Advance(time.Second)
	assert.True(t, sim.WatchdogExpired())
	assert.False(t, sim.Lit())

	sim.SetWatchdogReply(0x42)
	ok, err = codec.PingWatchdog()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, sim.WatchdogExpired())
}

func TestSimulator_BrightnessZeroTurnsOff(t *testing.T) {
	t.Parallel()

	sim := hal.NewSimulator(hal.SimulatorOpts{})
	require.NoError(t, proto.NewCodec(sim).SetBrightness(0))
	assert.False(t, sim.Lit())
}

func TestSimulator_InjectFault(t *testing.T) {
	t.Parallel()

	sim := hal.NewSimulator(hal.SimulatorOpts{})
	failure := errors.New("bus failure")
	sim.InjectFault(failure)

	_, err := sim.Transfer(byte(proto.CmdWatchdog))
	assert.ErrorIs(t, err, failure)
	assert.Zero(t, sim.Transfers())

	// only the next transfer fails
	ok, err := proto.NewCodec(sim).PingWatchdog()
	require.NoError(t, err)
	assert.True(t, ok)
}
