package hal

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// 250MHz core clock divided by 65536
	defaultSPIFrequencyHz = 3815
)

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

type spiTransport struct {
	port spi.PortCloser
	conn spi.Conn

	w [1]byte
	r [1]byte
}

// NewSPITransport opens the SPI port (mode 0, 8 bit words, MSB first).
func NewSPITransport(device string, frequencyHz int64) (Transport, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	if frequencyHz <= 0 {
		frequencyHz = defaultSPIFrequencyHz
	}

	port, err := spireg.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", device, err)
	}
	conn, err := port.Connect(physic.Frequency(frequencyHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi port %q: %w", device, err)
	}

	return &spiTransport{port: port, conn: conn}, nil
}

func (s *spiTransport) Transfer(b byte) (byte, error) {
	s.w[0] = b
	if err := s.conn.Tx(s.w[:], s.r[:]); err != nil {
		return 0, err
	}
	return s.r[0], nil
}

func (s *spiTransport) Close() error {
	return s.port.Close()
}
