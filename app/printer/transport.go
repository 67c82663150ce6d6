package printer

import (
	"context"
	"errors"
)

// ConnectionState is the lifecycle of a printer link. Connecting is reachable
// only from Idle; any disconnect, explicit or device-initiated, returns the
// link to Idle.
type ConnectionState int

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "idle"
	}
}

// Transport failure taxonomy. Callers classify with errors.Is; the UI boundary
// maps each class to its own user-facing message.
var (
	// ErrUnavailable: the host exposes no usable Bluetooth stack at all.
	ErrUnavailable = errors.New("bluetooth is not available on this system")
	// ErrCanceled: the user abandoned device selection; benign, not a failure.
	ErrCanceled = errors.New("device selection canceled")
	// ErrNoWritableCharacteristic: GATT connected but no known or writable
	// characteristic was found anywhere on the device.
	ErrNoWritableCharacteristic = errors.New("no writable printer characteristic found")
	// ErrNotConnected: a write was attempted with no live link and the
	// best-effort reconnect failed.
	ErrNotConnected = errors.New("printer not connected")
	// ErrBusy: a connect was attempted while not Idle.
	ErrBusy = errors.New("printer connection busy")
)

// Device is one discovered printer candidate.
type Device struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Transport is the single capability interface every physical printer link
// implements. Exactly one logical printer session exists at a time; callers
// must not issue overlapping Write calls, which the orchestrating service
// enforces with busy flags.
type Transport interface {
	// Connect opens the link to the device at address. For transports without
	// discovery the address is the endpoint itself (host:port, device path).
	Connect(ctx context.Context, address string) error
	// Disconnect closes any live link and always resets state to Idle.
	Disconnect() error
	// Write pushes one complete command stream to the printer, chunked and
	// paced as the medium requires. Bytes within one call are sent in order.
	Write(ctx context.Context, data []byte) error

	State() ConnectionState
	// DisplayName is the last-known device name; it survives disconnects for
	// UI continuity and may be non-empty while State is Idle.
	DisplayName() string
}

// Scanner is implemented by transports that support device discovery.
type Scanner interface {
	// Scan runs discovery until ctx is done or StopScan is called, invoking
	// found for every observed device.
	Scan(ctx context.Context, found func(Device)) error
	StopScan() error
}
