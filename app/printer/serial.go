package printer

import (
	"context"
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// SerialTransport drives printers attached over RS-232 or a USB-serial
// bridge. The address is the device path, e.g. /dev/ttyUSB0.
type SerialTransport struct {
	mu    sync.Mutex
	port  serial.Port
	state ConnectionState
	name  string

	// Baud defaults to 9600, the near-universal thermal printer rate.
	Baud int
}

func NewSerialTransport() *SerialTransport {
	return &SerialTransport{Baud: 9600}
}

func (t *SerialTransport) Connect(ctx context.Context, address string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return ErrBusy
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	}

	port, err := serial.Open(address, &serial.Mode{
		BaudRate: t.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open serial printer %s: %w", address, err)
	}
	t.port = port
	t.name = address
	t.state = StateConnected
	return nil
}

func (t *SerialTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	port := t.port
	t.port = nil
	t.state = StateIdle
	if port == nil {
		return nil
	}
	return port.Close()
}

func (t *SerialTransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := port.Write(data); err != nil {
		return fmt.Errorf("write serial: %w", err)
	}
	return nil
}

func (t *SerialTransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *SerialTransport) DisplayName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}
