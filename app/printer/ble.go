package printer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// Candidate GATT service UUIDs, tried in order. Covers the generic thermal
// printer profile plus the common vendor UART-bridge profiles; printers
// expose any subset of these, sometimes none by UUID at all.
var candidateServices = []string{
	"000018f0-0000-1000-8000-00805f9b34fb", // generic printer service
	"0000ff00-0000-1000-8000-00805f9b34fb", // vendor alternative
	"0000ffe0-0000-1000-8000-00805f9b34fb", // HM-10 style UART bridge
	"49535343-fe7d-4ae5-8fa9-9fafd205e455", // ISSC transparent UART
}

// Known write characteristic UUIDs, in preference order. When none match the
// adapter falls back to any characteristic of a candidate service that
// advertises write capability.
var candidateCharacteristics = []string{
	"00002af1-0000-1000-8000-00805f9b34fb",
	"0000ff01-0000-1000-8000-00805f9b34fb",
	"0000ff02-0000-1000-8000-00805f9b34fb",
	"0000ffe1-0000-1000-8000-00805f9b34fb",
	"49535343-8841-43f4-a8d4-ecbe34729bb3",
}

const (
	bleChunkSize       = 512
	bleChunkDelay      = 50 * time.Millisecond
	bleResolveTimeout  = 10 * time.Second
	bleResolveInterval = 200 * time.Millisecond

	bluezService = "org.bluez"
	adapterPath  = dbus.ObjectPath("/org/bluez/hci0")

	ifaceAdapter = "org.bluez.Adapter1"
	ifaceDevice  = "org.bluez.Device1"
	ifaceGattSvc = "org.bluez.GattService1"
	ifaceGattChr = "org.bluez.GattCharacteristic1"

	sigPropertiesChanged = "org.freedesktop.DBus.Properties.PropertiesChanged"
	sigInterfacesAdded   = "org.freedesktop.DBus.ObjectManager.InterfacesAdded"

	writeModeCommand = "command" // write-without-response
	writeModeRequest = "request" // acknowledged write
)

// gattBus is the narrow slice of the BlueZ D-Bus surface the transport needs.
// Kept as an interface so the connection state machine is testable without a
// system bus or hardware.
type gattBus interface {
	ManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, error)
	ConnectDevice(path dbus.ObjectPath) error
	DisconnectDevice(path dbus.ObjectPath) error
	DeviceProperty(path dbus.ObjectPath, prop string) (interface{}, error)
	WriteValue(char dbus.ObjectPath, data []byte, mode string) error
	StartDiscovery() error
	StopDiscovery() error
	Subscribe(ch chan<- *dbus.Signal)
	Unsubscribe(ch chan<- *dbus.Signal)
	Close() error
}

// systemBus is the production gattBus backed by the system D-Bus.
type systemBus struct {
	conn *dbus.Conn
}

func dialSystemBus() (gattBus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// One match each for device property changes and discovery events.
	if err := conn.AddMatchSignal(
		dbus.WithMatchSender(bluezService),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchSender(bluezService),
		dbus.WithMatchInterface("org.freedesktop.DBus.ObjectManager"),
		dbus.WithMatchMember("InterfacesAdded"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &systemBus{conn: conn}, nil
}

func (b *systemBus) ManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, error) {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	obj := b.conn.Object(bluezService, "/")
	call := obj.Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0)
	if call.Err != nil {
		return nil, call.Err
	}
	if err := call.Store(&objects); err != nil {
		return nil, err
	}
	return objects, nil
}

func (b *systemBus) ConnectDevice(path dbus.ObjectPath) error {
	return b.conn.Object(bluezService, path).Call(ifaceDevice+".Connect", 0).Err
}

func (b *systemBus) DisconnectDevice(path dbus.ObjectPath) error {
	return b.conn.Object(bluezService, path).Call(ifaceDevice+".Disconnect", 0).Err
}

func (b *systemBus) DeviceProperty(path dbus.ObjectPath, prop string) (interface{}, error) {
	v, err := b.conn.Object(bluezService, path).GetProperty(ifaceDevice + "." + prop)
	if err != nil {
		return nil, err
	}
	return v.Value(), nil
}

func (b *systemBus) WriteValue(char dbus.ObjectPath, data []byte, mode string) error {
	opts := map[string]dbus.Variant{"type": dbus.MakeVariant(mode)}
	return b.conn.Object(bluezService, char).Call(ifaceGattChr+".WriteValue", 0, data, opts).Err
}

func (b *systemBus) StartDiscovery() error {
	return b.conn.Object(bluezService, adapterPath).Call(ifaceAdapter+".StartDiscovery", 0).Err
}

func (b *systemBus) StopDiscovery() error {
	return b.conn.Object(bluezService, adapterPath).Call(ifaceAdapter+".StopDiscovery", 0).Err
}

func (b *systemBus) Subscribe(ch chan<- *dbus.Signal)   { b.conn.Signal(ch) }
func (b *systemBus) Unsubscribe(ch chan<- *dbus.Signal) { b.conn.RemoveSignal(ch) }
func (b *systemBus) Close() error                       { return b.conn.Close() }

// BLETransport drives a Bluetooth Low Energy thermal printer through BlueZ.
// It owns the process-wide printer link state: characteristic selection
// across inconsistent vendor firmware, chunked and paced writes, a single
// best-effort reconnect from the pre-write check, and disconnect-event
// handling that resets the link to Idle.
type BLETransport struct {
	mu sync.Mutex

	dial func() (gattBus, error)
	bus  gattBus

	state      ConnectionState
	devicePath dbus.ObjectPath
	charPath   dbus.ObjectPath
	writeMode  string
	name       string

	scanCancel context.CancelFunc

	watchCh   chan *dbus.Signal
	watchDone chan struct{}

	// NameSink, when set, receives the device display name after every
	// successful connect so it can be persisted for UI continuity.
	NameSink func(name string)
	// OnDisconnect, when set, is invoked after a spontaneous device-initiated
	// disconnect has reset the state to Idle.
	OnDisconnect func()
}

// NewBLETransport returns a transport using the system D-Bus. The bus is
// dialed lazily on first use so construction never fails on hosts without
// Bluetooth.
func NewBLETransport() *BLETransport {
	return &BLETransport{dial: dialSystemBus}
}

func newBLETransportWithBus(dial func() (gattBus, error)) *BLETransport {
	return &BLETransport{dial: dial}
}

func (t *BLETransport) ensureBus() (gattBus, error) {
	if t.bus != nil {
		return t.bus, nil
	}
	bus, err := t.dial()
	if err != nil {
		return nil, err
	}
	t.bus = bus
	return bus, nil
}

// devicePathFor maps a Bluetooth address to its BlueZ object path.
func devicePathFor(address string) dbus.ObjectPath {
	mangled := strings.ReplaceAll(strings.ToUpper(address), ":", "_")
	return dbus.ObjectPath(string(adapterPath) + "/dev_" + mangled)
}

func (t *BLETransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// DisplayName returns the last-known device name, surviving disconnects.
func (t *BLETransport) DisplayName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// Connect pairs with the printer at address: opens the GATT session, waits
// for service resolution and locates a usable write characteristic. A
// canceled context is reported as a benign ErrCanceled.
func (t *BLETransport) Connect(ctx context.Context, address string) error {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return ErrBusy
	}
	t.state = StateConnecting
	bus, err := t.ensureBus()
	t.mu.Unlock()
	if err != nil {
		t.setIdle()
		return err
	}

	devPath := devicePathFor(address)
	if err := t.connectAndResolve(ctx, bus, devPath); err != nil {
		t.setIdle()
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrCanceled, ctx.Err())
		}
		return err
	}

	charPath, mode, err := selectWriteCharacteristic(bus, devPath)
	if err != nil {
		bus.DisconnectDevice(devPath)
		t.setIdle()
		return err
	}

	name := address
	if v, err := bus.DeviceProperty(devPath, "Name"); err == nil {
		if s, ok := v.(string); ok && s != "" {
			name = s
		}
	}

	t.mu.Lock()
	t.devicePath = devPath
	t.charPath = charPath
	t.writeMode = mode
	t.name = name
	t.state = StateConnected
	sink := t.NameSink
	t.mu.Unlock()

	t.watchDisconnect(bus, devPath)

	if sink != nil {
		sink(name)
	}
	return nil
}

func (t *BLETransport) connectAndResolve(ctx context.Context, bus gattBus, devPath dbus.ObjectPath) error {
	if err := bus.ConnectDevice(devPath); err != nil {
		return fmt.Errorf("connect %s: %w", devPath, err)
	}

	// BlueZ resolves GATT services asynchronously after Connect returns.
	deadline := time.Now().Add(bleResolveTimeout)
	for {
		v, err := bus.DeviceProperty(devPath, "ServicesResolved")
		if err == nil {
			if resolved, ok := v.(bool); ok && resolved {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("connect %s: services not resolved", devPath)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bleResolveInterval):
		}
	}
}

// selectWriteCharacteristic walks the device's GATT tree. Known characteristic
// UUIDs win in priority order; otherwise any characteristic of a candidate
// service advertising write capability is accepted, preferring
// write-without-response for latency.
func selectWriteCharacteristic(bus gattBus, devPath dbus.ObjectPath) (dbus.ObjectPath, string, error) {
	objects, err := bus.ManagedObjects()
	if err != nil {
		return "", "", fmt.Errorf("enumerate services: %w", err)
	}

	type gattChar struct {
		path  dbus.ObjectPath
		uuid  string
		flags []string
	}

	// Collect characteristics grouped by their parent candidate service.
	servicePaths := map[dbus.ObjectPath]string{}
	for path, ifaces := range objects {
		props, ok := ifaces[ifaceGattSvc]
		if !ok || !strings.HasPrefix(string(path), string(devPath)) {
			continue
		}
		uuid, _ := props["UUID"].Value().(string)
		servicePaths[path] = strings.ToLower(uuid)
	}

	charsByService := map[string][]gattChar{}
	for path, ifaces := range objects {
		props, ok := ifaces[ifaceGattChr]
		if !ok {
			continue
		}
		for svcPath, svcUUID := range servicePaths {
			if !strings.HasPrefix(string(path), string(svcPath)) {
				continue
			}
			uuid, _ := props["UUID"].Value().(string)
			var flags []string
			switch v := props["Flags"].Value().(type) {
			case []string:
				flags = v
			case []interface{}:
				for _, f := range v {
					if s, ok := f.(string); ok {
						flags = append(flags, s)
					}
				}
			}
			charsByService[svcUUID] = append(charsByService[svcUUID], gattChar{
				path: path, uuid: strings.ToLower(uuid), flags: flags,
			})
		}
	}

	mode := func(flags []string) (string, bool) {
		hasWrite := false
		for _, f := range flags {
			switch f {
			case "write-without-response":
				return writeModeCommand, true
			case "write":
				hasWrite = true
			}
		}
		if hasWrite {
			return writeModeRequest, true
		}
		return "", false
	}

	for _, svcUUID := range candidateServices {
		chars := charsByService[svcUUID]
		if len(chars) == 0 {
			continue
		}
		// Known UUIDs first.
		for _, wanted := range candidateCharacteristics {
			for _, c := range chars {
				if c.uuid != wanted {
					continue
				}
				m, ok := mode(c.flags)
				if !ok {
					// Firmware lies about flags often enough; known UUIDs
					// are trusted to accept acknowledged writes.
					m = writeModeRequest
				}
				return c.path, m, nil
			}
		}
		// Fallback: first characteristic of this service that can be written.
		for _, c := range chars {
			if m, ok := mode(c.flags); ok {
				return c.path, m, nil
			}
		}
	}

	return "", "", ErrNoWritableCharacteristic
}

// watchDisconnect resets the link the moment BlueZ reports the peripheral
// dropped it. The display name is deliberately retained.
func (t *BLETransport) watchDisconnect(bus gattBus, devPath dbus.ObjectPath) {
	t.mu.Lock()
	if t.watchCh != nil {
		t.mu.Unlock()
		return
	}
	ch := make(chan *dbus.Signal, 16)
	done := make(chan struct{})
	t.watchCh = ch
	t.watchDone = done
	t.mu.Unlock()

	bus.Subscribe(ch)
	go func() {
		defer close(done)
		for sig := range ch {
			if sig.Name != sigPropertiesChanged || sig.Path != devPath {
				continue
			}
			if len(sig.Body) < 2 {
				continue
			}
			iface, _ := sig.Body[0].(string)
			if iface != ifaceDevice {
				continue
			}
			changed, _ := sig.Body[1].(map[string]dbus.Variant)
			v, ok := changed["Connected"]
			if !ok {
				continue
			}
			if connected, _ := v.Value().(bool); connected {
				continue
			}
			t.mu.Lock()
			spontaneous := t.state == StateConnected
			t.charPath = ""
			t.state = StateIdle
			cb := t.OnDisconnect
			t.mu.Unlock()
			if spontaneous && cb != nil {
				cb()
			}
		}
	}()
}

func (t *BLETransport) setIdle() {
	t.mu.Lock()
	t.state = StateIdle
	t.mu.Unlock()
}

// Disconnect closes the GATT session if one is live, stops the disconnect
// watcher, releases the bus connection and resets the in-memory state to Idle.
// The transport can be connected again afterwards; the bus is re-dialed.
func (t *BLETransport) Disconnect() error {
	t.mu.Lock()
	bus := t.bus
	devPath := t.devicePath
	watchCh := t.watchCh
	connected := t.state == StateConnected
	t.bus = nil
	t.watchCh = nil
	t.devicePath = ""
	t.charPath = ""
	t.state = StateIdle
	t.mu.Unlock()

	if bus == nil {
		return nil
	}

	var err error
	if connected && devPath != "" {
		err = bus.DisconnectDevice(devPath)
	}
	// Unsubscribe before closing the channel so the bus can no longer send
	// into it; closing it ends the watch goroutine.
	if watchCh != nil {
		bus.Unsubscribe(watchCh)
		close(watchCh)
	}
	if closeErr := bus.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Write sends one command stream in 512-byte chunks with a pacing delay,
// since BLE printers drop or corrupt oversized or back-to-back writes. If the
// link silently dropped but the device is still remembered, one best-effort
// reconnect is attempted before failing with ErrNotConnected. A failure
// mid-stream is returned as-is; retry happens only from this pre-write check.
func (t *BLETransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	bus := t.bus
	devPath := t.devicePath
	charPath := t.charPath
	mode := t.writeMode
	connected := t.state == StateConnected
	t.mu.Unlock()

	if bus == nil || devPath == "" {
		return ErrNotConnected
	}

	if !connected {
		// One reconnect attempt against the remembered device.
		if charPath == "" {
			t.mu.Lock()
			charPath = t.lastCharPath()
			t.mu.Unlock()
		}
		if charPath == "" || bus.ConnectDevice(devPath) != nil {
			return ErrNotConnected
		}
		t.mu.Lock()
		t.charPath = charPath
		t.state = StateConnected
		t.mu.Unlock()
	}

	for off := 0; off < len(data); off += bleChunkSize {
		end := off + bleChunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := bus.WriteValue(charPath, data[off:end], mode); err != nil {
			return fmt.Errorf("write chunk at %d: %w", off, err)
		}
		if end == len(data) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bleChunkDelay):
		}
	}
	return nil
}

// lastCharPath re-derives the characteristic path from the remembered device
// after a silent drop; BlueZ keeps GATT object paths stable across reconnects
// to the same device.
func (t *BLETransport) lastCharPath() dbus.ObjectPath {
	if t.bus == nil || t.devicePath == "" {
		return ""
	}
	path, _, err := selectWriteCharacteristic(t.bus, t.devicePath)
	if err != nil {
		return ""
	}
	return path
}

// Scan runs BLE discovery, emitting every observed device: first the devices
// BlueZ already knows, then InterfacesAdded events as they arrive. Returns
// when ctx is done or StopScan is called.
func (t *BLETransport) Scan(ctx context.Context, found func(Device)) error {
	t.mu.Lock()
	bus, err := t.ensureBus()
	if err != nil {
		t.mu.Unlock()
		return err
	}
	scanCtx, cancel := context.WithCancel(ctx)
	t.scanCancel = cancel
	t.mu.Unlock()
	defer cancel()

	if err := bus.StartDiscovery(); err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}
	defer bus.StopDiscovery()

	// Emit already-known devices before the live events.
	if objects, err := bus.ManagedObjects(); err == nil {
		for _, ifaces := range objects {
			if props, ok := ifaces[ifaceDevice]; ok {
				if dev, ok := deviceFromProps(props); ok {
					found(dev)
				}
			}
		}
	}

	ch := make(chan *dbus.Signal, 16)
	bus.Subscribe(ch)
	defer bus.Unsubscribe(ch)

	for {
		select {
		case <-scanCtx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return nil
			}
			if sig.Name != sigInterfacesAdded || len(sig.Body) < 2 {
				continue
			}
			ifaces, _ := sig.Body[1].(map[string]map[string]dbus.Variant)
			if props, ok := ifaces[ifaceDevice]; ok {
				if dev, ok := deviceFromProps(props); ok {
					found(dev)
				}
			}
		}
	}
}

// StopScan ends an in-progress Scan; it is the only way to interrupt one
// short of canceling its context.
func (t *BLETransport) StopScan() error {
	t.mu.Lock()
	cancel := t.scanCancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func deviceFromProps(props map[string]dbus.Variant) (Device, bool) {
	addr, _ := props["Address"].Value().(string)
	if addr == "" {
		return Device{}, false
	}
	name, _ := props["Name"].Value().(string)
	if name == "" {
		name, _ = props["Alias"].Value().(string)
	}
	return Device{Name: name, Address: addr}, true
}
