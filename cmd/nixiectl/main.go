package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptime-industries/nixie-clock/pkg/hal"
	"github.com/uptime-industries/nixie-clock/pkg/log"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
)

var errWatchdogMissing = errors.New("watchdog reply missing")

type peripheralContextKey int

const defaultPeripheralContextKey peripheralContextKey = 0

var (
	hwOpts      = hal.DefaultOpts()
	transport   string
	noReset     bool
	development bool
	timeout     time.Duration
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&transport, "transport", string(hwOpts.Transport), "bus to the tube controller (spi, serial or simulated)")
	flags.StringVar(&hwOpts.SPIDevice, "spi-device", hwOpts.SPIDevice, "SPI port name")
	flags.Int64Var(&hwOpts.SPIFrequencyHz, "spi-frequency", hwOpts.SPIFrequencyHz, "SPI clock in Hz")
	flags.StringVar(&hwOpts.SerialPort, "serial-port", hwOpts.SerialPort, "serial port of the UART bridge")
	flags.IntVar(&hwOpts.SerialBaudrate, "serial-baudrate", hwOpts.SerialBaudrate, "baudrate of the UART bridge")
	flags.StringVar(&hwOpts.ResetChip, "reset-chip", hwOpts.ResetChip, "gpiochip of the reset line")
	flags.IntVar(&hwOpts.ResetOffset, "reset-offset", hwOpts.ResetOffset, "line offset of the reset line")
	flags.BoolVar(&noReset, "no-reset", false, "do not reset the tube controller before the command")
	flags.BoolVar(&development, "development", false, "human readable debug logging")
	flags.DurationVar(&timeout, "timeout", 0, "stop after this duration (0 runs until interrupted)")
}

func peripheralIntoContext(ctx context.Context, p *hal.Peripheral) context.Context {
	return context.WithValue(ctx, defaultPeripheralContextKey, p)
}

func peripheralFromContext(ctx context.Context) *hal.Peripheral {
	p, ok := ctx.Value(defaultPeripheralContextKey).(*hal.Peripheral)
	if !ok {
		panic("peripheral not found in context")
	}
	return p
}

func codecFromContext(ctx context.Context) *proto.Codec {
	return proto.NewCodec(peripheralFromContext(ctx))
}

var rootCmd = &cobra.Command{
	Use:          "nixiectl",
	Short:        "nixiectl talks to the tube controller directly, for bench tests and diagnostics",
	Long:         "nixiectl talks to the tube controller directly. Stop the nixie-clock daemon first, the bus must not be shared.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		zapLogger, err := log.New(development, "nixiectl")
		if err != nil {
			return err
		}
		ctx := log.IntoContext(cmd.Context(), zapLogger)

		// setup signal handlers for SIGINT and SIGTERM
		var cancelCtx context.CancelFunc
		if timeout > 0 {
			ctx, cancelCtx = context.WithTimeout(ctx, timeout)
		} else {
			ctx, cancelCtx = context.WithCancel(ctx)
		}
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			// Wait for context cancel or signal
			select {
			case <-ctx.Done():
			case <-sigs:
				// On signal, cancel context
				cancelCtx()
			}
		}()

		hwOpts.Transport = hal.TransportKind(transport)
		p, err := hal.Open(ctx, hwOpts)
		if err != nil {
			return fmt.Errorf("failed to open tube controller: %w", err)
		}
		if !noReset {
			if err := p.Reset(); err != nil {
				return fmt.Errorf("failed to reset tube controller: %w", err)
			}
		}

		cmd.SetContext(peripheralIntoContext(ctx, p))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return peripheralFromContext(cmd.Context()).Close()
	},
}

// every calls fn count times (forever if count is 0), waiting interval before each call.
func every(ctx context.Context, interval time.Duration, count int, fn func(i int) error) error {
	for i := 0; count == 0 || i < count; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

// pingWatchdog fails when the controller does not answer the watchdog correctly
func pingWatchdog(ctx context.Context, codec *proto.Codec) error {
	ok, err := codec.PingWatchdog()
	if err != nil {
		return err
	}
	if !ok {
		log.FromContext(ctx).Warn("Watchdog reply missing")
		return errWatchdogMissing
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
