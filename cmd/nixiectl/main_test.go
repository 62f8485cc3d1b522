package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--transport", "simulated"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "1.0\n", out)
}

func TestRaw(t *testing.T) {
	// firmware replies lag one byte behind
	out, err := execute(t, "raw", "85", "255")
	require.NoError(t, err)
	assert.Equal(t, "sent: 85 returned: 255\nsent: 255 returned: 170\n", out)
}

func TestDigitsRejectsGarbage(t *testing.T) {
	_, err := execute(t, "digits", "12:3x")
	assert.ErrorIs(t, err, proto.ErrInvalidDigit)
}

func TestDimRejectsOutOfRange(t *testing.T) {
	_, err := execute(t, "dim", "11")
	assert.Error(t, err)
}

func TestWatchdogLoop(t *testing.T) {
	out, err := execute(t, "watchdog", "--count", "2", "--interval", "1ms")
	require.NoError(t, err)
	assert.Equal(t, "ping 0: ok\nping 1: ok\n", out)
}

func TestEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := every(ctx, time.Millisecond, 0, func(int) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestTestPattern(t *testing.T) {
	assert.Equal(t, proto.Digits{5, 1, 0, 0}, testPattern(0))
	assert.Equal(t, proto.Digits{9, 9, 8, 4}, testPattern(4))
	assert.Equal(t, testPattern(1), testPattern(6))
}
