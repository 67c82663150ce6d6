package printer

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

const rawPrintPort = "9100"

// NetworkTransport speaks raw TCP to an Ethernet or Wi-Fi printer. The
// address may omit the port, in which case the JetDirect default 9100 is
// assumed.
type NetworkTransport struct {
	mu    sync.Mutex
	conn  net.Conn
	state ConnectionState
	name  string
}

func NewNetworkTransport() *NetworkTransport {
	return &NetworkTransport{}
}

func (t *NetworkTransport) Connect(ctx context.Context, address string) error {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return ErrBusy
	}
	t.state = StateConnecting
	t.mu.Unlock()

	if !strings.Contains(address, ":") {
		address = net.JoinHostPort(address, rawPrintPort)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		t.mu.Lock()
		t.state = StateIdle
		t.mu.Unlock()
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrCanceled, ctx.Err())
		}
		return fmt.Errorf("connect network printer %s: %w", address, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.name = address
	t.state = StateConnected
	t.mu.Unlock()
	return nil
}

func (t *NetworkTransport) Disconnect() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.state = StateIdle
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (t *NetworkTransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	}
	if _, err := conn.Write(data); err != nil {
		// A broken pipe means the printer dropped us; reflect that.
		t.mu.Lock()
		if t.conn == conn {
			t.conn = nil
			t.state = StateIdle
		}
		t.mu.Unlock()
		return fmt.Errorf("write network printer: %w", err)
	}
	return nil
}

func (t *NetworkTransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *NetworkTransport) DisplayName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}
