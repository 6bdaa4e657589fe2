//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
)

// frameSync opens every serial frame so the panel bridge can
// resynchronize after a dropped byte.
const frameSync = 0xA5

// serialSink forwards sink writes to a panel bridge over a serial
// port. Each write is a four byte frame: sync, select high, select
// low, data.
type serialSink struct {
	port serial.Port
}

// NewSerialSink opens the serial port at address and returns a sink
// that frames every Transmit onto it.
func NewSerialSink(address string, baudRate int, timeout time.Duration) (Sink, io.Closer, error) {
	port, err := serial.Open(&serial.Config{
		Address:  address,
		BaudRate: baudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("serial: open %s: %w", address, err)
	}
	return &serialSink{port: port}, port, nil
}

func (s *serialSink) Transmit(sel SelectMask, b byte) error {
	frame := [4]byte{frameSync, byte(sel >> 8), byte(sel), b}
	if _, err := s.port.Write(frame[:]); err != nil {
		return fmt.Errorf("serial: transmit: %w", err)
	}
	return nil
}
