package printer

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// FileTransport writes command streams straight to a file or character
// device. It covers USB printers exposed as /dev/usb/lp0 and doubles as a
// diagnostic sink when pointed at a regular file.
type FileTransport struct {
	mu    sync.Mutex
	file  *os.File
	state ConnectionState
	name  string
}

func NewFileTransport() *FileTransport {
	return &FileTransport{}
}

func (t *FileTransport) Connect(ctx context.Context, address string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return ErrBusy
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	}

	f, err := os.OpenFile(address, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open printer device %s: %w", address, err)
	}
	t.file = f
	t.name = address
	t.state = StateConnected
	return nil
}

func (t *FileTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	f := t.file
	t.file = nil
	t.state = StateIdle
	if f == nil {
		return nil
	}
	return f.Close()
}

func (t *FileTransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	f := t.file
	t.mu.Unlock()
	if f == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write printer device: %w", err)
	}
	return nil
}

func (t *FileTransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *FileTransport) DisplayName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}
