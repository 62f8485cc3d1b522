package hal

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptime-industries/nixie-clock/pkg/log"
	"go.uber.org/zap"
)

type TransportKind string

const (
	TransportSPI       TransportKind = "spi"
	TransportSerial    TransportKind = "serial"
	TransportSimulated TransportKind = "simulated"
)

var ErrUnsupportedTransport = errors.New("unsupported transport")

// Transport abstracts the byte-level link to the tube controller.
// One call exchanges exactly one byte in each direction.
type Transport interface {
	Transfer(b byte) (byte, error)
	Close() error
}

// ResetLine drives the controller reset pin. Reset must be idempotent.
type ResetLine interface {
	Reset() error
	Close() error
}

// Opts selects and configures the hardware backends
type Opts struct {
	// Transport selects the bus used to reach the controller
	Transport TransportKind `mapstructure:"transport"`

	// SPIDevice is the periph.io port name, e.g. "SPI0.1" (chip select 1)
	SPIDevice string `mapstructure:"spi_device"`
	// SPIFrequencyHz is the bus clock. The controller is an SPI slave and needs a slow clock.
	SPIFrequencyHz int64 `mapstructure:"spi_frequency_hz"`

	// SerialPort is the tty of a UART bridge to the controller
	SerialPort string `mapstructure:"serial_port"`
	// SerialBaudrate of the UART bridge
	SerialBaudrate int `mapstructure:"serial_baudrate"`

	// ResetChip is the gpiochip carrying the reset line
	ResetChip string `mapstructure:"reset_chip"`
	// ResetOffset is the line offset on ResetChip (GPIO8, header pin 24 on a Raspberry Pi)
	ResetOffset int `mapstructure:"reset_offset"`
}

// DefaultOpts returns the wiring of the reference board.
func DefaultOpts() Opts {
	return Opts{
		Transport:      TransportSPI,
		SPIDevice:      "SPI0.1",
		SPIFrequencyHz: defaultSPIFrequencyHz,
		SerialPort:     "/dev/ttyUSB0",
		SerialBaudrate: defaultSerialBaudrate,
		ResetChip:      "gpiochip0",
		ResetOffset:    defaultResetOffset,
	}
}

// Peripheral bundles the transport and reset line of one tube controller.
type Peripheral struct {
	Transport Transport
	ResetLine ResetLine
}

// Open initialises the hardware selected by opts. Anything opened before a failure is closed again.
func Open(ctx context.Context, opts Opts) (*Peripheral, error) {
	log.FromContext(ctx).Info("opening peripheral", zap.String("transport", string(opts.Transport)))

	if opts.Transport == TransportSimulated {
		sim := NewSimulator(SimulatorOpts{})
		transportKind.WithLabelValues(string(TransportSimulated)).Set(1)
		return &Peripheral{Transport: sim, ResetLine: sim}, nil
	}

	var (
		tr  Transport
		err error
	)
	switch opts.Transport {
	case TransportSPI:
		tr, err = NewSPITransport(opts.SPIDevice, opts.SPIFrequencyHz)
	case TransportSerial:
		tr, err = NewSerialTransport(opts.SerialPort, opts.SerialBaudrate)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTransport, opts.Transport)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s transport: %w", opts.Transport, err)
	}
	transportKind.WithLabelValues(string(opts.Transport)).Set(1)

	rst, err := NewGPIOResetLine(opts.ResetChip, opts.ResetOffset)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open reset line: %w", err), tr.Close())
	}

	return &Peripheral{Transport: tr, ResetLine: rst}, nil
}

// Reset toggles the reset line and counts the reset.
func (p *Peripheral) Reset() error {
	resetCount.Inc()
	return p.ResetLine.Reset()
}

// Transfer exchanges one byte and counts failures.
func (p *Peripheral) Transfer(b byte) (byte, error) {
	reply, err := p.Transport.Transfer(b)
	if err != nil {
		transferErrorCount.Inc()
	}
	return reply, err
}

// Close releases the transport and reset line.
func (p *Peripheral) Close() error {
	// the simulator serves as both
	if any(p.ResetLine) == any(p.Transport) {
		return p.Transport.Close()
	}
	return errors.Join(p.Transport.Close(), p.ResetLine.Close())
}
