package hal

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

const (
	defaultSerialBaudrate = 9600
	serialReplyTimeout    = 100 * time.Millisecond
)

var ErrNoReply = errors.New("no reply from controller")

// serialTransport talks to the controller through a UART bridge that forwards each byte
// onto the SPI bus and answers with the byte clocked back.
type serialTransport struct {
	port serial.Port
	buf  [1]byte
}

func NewSerialTransport(portName string, baudrate int) (Transport, error) {
	if baudrate <= 0 {
		baudrate = defaultSerialBaudrate
	}
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudrate,
	})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(serialReplyTimeout); err != nil {
		return nil, errors.Join(err, port.Close())
	}
	// Drop anything left over from a previous session
	if err := port.ResetInputBuffer(); err != nil {
		return nil, errors.Join(err, port.Close())
	}

	return &serialTransport{port: port}, nil
}

func (s *serialTransport) Transfer(b byte) (byte, error) {
	s.buf[0] = b
	if _, err := s.port.Write(s.buf[:]); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	n, err := s.port.Read(s.buf[:])
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}
	if n == 0 {
		return 0, ErrNoReply
	}
	return s.buf[0], nil
}

func (s *serialTransport) Close() error {
	return s.port.Close()
}
