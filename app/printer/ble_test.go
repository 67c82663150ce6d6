package printer

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

const testAddress = "AA:BB:CC:DD:EE:FF"

type fakeWrite struct {
	data []byte
	mode string
}

// fakeBus is an in-memory stand-in for the BlueZ object tree.
type fakeBus struct {
	mu sync.Mutex

	objects    map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	deviceName string
	connectErr error
	writeErr   error
	writes     []fakeWrite
	subs       []chan<- *dbus.Signal
	connected  bool
	closes     int
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		objects:    map[dbus.ObjectPath]map[string]map[string]dbus.Variant{},
		deviceName: "ThermalPrinter",
	}
}

// addCharacteristic registers a GATT service/characteristic pair under the
// test device.
func (f *fakeBus) addCharacteristic(svcUUID, charUUID string, flags []string) dbus.ObjectPath {
	dev := devicePathFor(testAddress)
	svc := dbus.ObjectPath(string(dev) + "/service" + svcUUID[4:8])
	chr := dbus.ObjectPath(string(svc) + "/char" + charUUID[4:8])
	f.objects[svc] = map[string]map[string]dbus.Variant{
		ifaceGattSvc: {"UUID": dbus.MakeVariant(svcUUID)},
	}
	f.objects[chr] = map[string]map[string]dbus.Variant{
		ifaceGattChr: {
			"UUID":  dbus.MakeVariant(charUUID),
			"Flags": dbus.MakeVariant(flags),
		},
	}
	return chr
}

func (f *fakeBus) emit(sig *dbus.Signal) {
	f.mu.Lock()
	subs := append([]chan<- *dbus.Signal(nil), f.subs...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- sig
	}
}

func (f *fakeBus) dropDevice() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	f.emit(&dbus.Signal{
		Path: devicePathFor(testAddress),
		Name: sigPropertiesChanged,
		Body: []interface{}{
			ifaceDevice,
			map[string]dbus.Variant{"Connected": dbus.MakeVariant(false)},
			[]string{},
		},
	})
}

func (f *fakeBus) ManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant, len(f.objects))
	for k, v := range f.objects {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBus) ConnectDevice(path dbus.ObjectPath) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeBus) DisconnectDevice(path dbus.ObjectPath) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeBus) DeviceProperty(path dbus.ObjectPath, prop string) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch prop {
	case "ServicesResolved", "Connected":
		return f.connected, nil
	case "Name":
		return f.deviceName, nil
	}
	return nil, errors.New("unknown property")
}

func (f *fakeBus) WriteValue(char dbus.ObjectPath, data []byte, mode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, fakeWrite{data: append([]byte(nil), data...), mode: mode})
	return nil
}

func (f *fakeBus) StartDiscovery() error { return nil }
func (f *fakeBus) StopDiscovery() error  { return nil }

func (f *fakeBus) Subscribe(ch chan<- *dbus.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, ch)
}

func (f *fakeBus) Unsubscribe(ch chan<- *dbus.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.subs {
		if sub == ch {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

func (f *fakeBus) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeBus) subscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeBus) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func newTestTransport(bus *fakeBus) *BLETransport {
	return newBLETransportWithBus(func() (gattBus, error) { return bus, nil })
}

func TestBLETransport_ConnectSelectsKnownCharacteristic(t *testing.T) {
	bus := newFakeBus()
	want := bus.addCharacteristic(candidateServices[0], candidateCharacteristics[0],
		[]string{"write", "write-without-response"})

	var persisted string
	tr := newTestTransport(bus)
	tr.NameSink = func(name string) { persisted = name }

	if err := tr.Connect(context.Background(), testAddress); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if tr.State() != StateConnected {
		t.Errorf("State() = %v, want connected", tr.State())
	}
	if tr.charPath != want {
		t.Errorf("selected characteristic = %v, want %v", tr.charPath, want)
	}
	if tr.writeMode != writeModeCommand {
		t.Errorf("write mode = %q, want %q", tr.writeMode, writeModeCommand)
	}
	if tr.DisplayName() != "ThermalPrinter" {
		t.Errorf("DisplayName() = %q", tr.DisplayName())
	}
	if persisted != "ThermalPrinter" {
		t.Errorf("persisted name = %q, want ThermalPrinter", persisted)
	}
}

func TestBLETransport_ConnectFallsBackToWritableCharacteristic(t *testing.T) {
	bus := newFakeBus()
	// Unknown characteristic UUID, but its flags say it accepts writes.
	want := bus.addCharacteristic(candidateServices[1],
		"0000abcd-0000-1000-8000-00805f9b34fb", []string{"write"})

	tr := newTestTransport(bus)
	if err := tr.Connect(context.Background(), testAddress); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if tr.charPath != want {
		t.Errorf("selected characteristic = %v, want %v", tr.charPath, want)
	}
	if tr.writeMode != writeModeRequest {
		t.Errorf("write mode = %q, want %q", tr.writeMode, writeModeRequest)
	}
}

func TestBLETransport_ConnectNoWritableCharacteristic(t *testing.T) {
	bus := newFakeBus()
	bus.addCharacteristic(candidateServices[0],
		"0000abcd-0000-1000-8000-00805f9b34fb", []string{"read", "notify"})

	tr := newTestTransport(bus)
	err := tr.Connect(context.Background(), testAddress)
	if !errors.Is(err, ErrNoWritableCharacteristic) {
		t.Fatalf("Connect() error = %v, want ErrNoWritableCharacteristic", err)
	}
	if tr.State() != StateIdle {
		t.Errorf("State() after failed connect = %v, want idle", tr.State())
	}
}

func TestBLETransport_ConnectWhileConnectedIsBusy(t *testing.T) {
	bus := newFakeBus()
	bus.addCharacteristic(candidateServices[0], candidateCharacteristics[0], []string{"write"})

	tr := newTestTransport(bus)
	if err := tr.Connect(context.Background(), testAddress); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := tr.Connect(context.Background(), testAddress); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Connect() error = %v, want ErrBusy", err)
	}
}

func TestBLETransport_WriteChunksInOrder(t *testing.T) {
	bus := newFakeBus()
	bus.addCharacteristic(candidateServices[0], candidateCharacteristics[0],
		[]string{"write-without-response"})

	tr := newTestTransport(bus)
	if err := tr.Connect(context.Background(), testAddress); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	payload := make([]byte, 1500)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := tr.Write(context.Background(), payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if len(bus.writes) != 3 {
		t.Fatalf("write count = %d, want 3", len(bus.writes))
	}
	sizes := []int{512, 512, 476}
	var replay []byte
	for i, w := range bus.writes {
		if len(w.data) != sizes[i] {
			t.Errorf("chunk %d size = %d, want %d", i, len(w.data), sizes[i])
		}
		if w.mode != writeModeCommand {
			t.Errorf("chunk %d mode = %q, want %q", i, w.mode, writeModeCommand)
		}
		replay = append(replay, w.data...)
	}
	if !bytes.Equal(replay, payload) {
		t.Error("reassembled chunks differ from the payload")
	}
}

func TestBLETransport_WriteWithoutConnect(t *testing.T) {
	tr := newTestTransport(newFakeBus())
	if err := tr.Write(context.Background(), []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Write() error = %v, want ErrNotConnected", err)
	}
}

func TestBLETransport_SpontaneousDisconnectResetsState(t *testing.T) {
	bus := newFakeBus()
	bus.addCharacteristic(candidateServices[0], candidateCharacteristics[0], []string{"write"})

	dropped := make(chan struct{})
	tr := newTestTransport(bus)
	tr.OnDisconnect = func() { close(dropped) }

	if err := tr.Connect(context.Background(), testAddress); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	bus.dropDevice()
	select {
	case <-dropped:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback never fired")
	}

	if tr.State() != StateIdle {
		t.Errorf("State() after drop = %v, want idle", tr.State())
	}
	// The name outlives the link for UI continuity.
	if tr.DisplayName() != "ThermalPrinter" {
		t.Errorf("DisplayName() after drop = %q, want ThermalPrinter", tr.DisplayName())
	}
}

func TestBLETransport_WriteReconnectsOnceAfterDrop(t *testing.T) {
	bus := newFakeBus()
	bus.addCharacteristic(candidateServices[0], candidateCharacteristics[0], []string{"write"})

	dropped := make(chan struct{})
	tr := newTestTransport(bus)
	tr.OnDisconnect = func() { close(dropped) }

	if err := tr.Connect(context.Background(), testAddress); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	bus.dropDevice()
	<-dropped

	if err := tr.Write(context.Background(), []byte("after drop")); err != nil {
		t.Fatalf("Write() after drop error = %v, want reconnect", err)
	}
	if tr.State() != StateConnected {
		t.Errorf("State() after reconnect = %v, want connected", tr.State())
	}

	// A second drop with the device now unreachable fails the write outright.
	bus.connectErr = errors.New("le-connection-abort-by-local")
	tr.mu.Lock()
	tr.state = StateIdle
	tr.charPath = ""
	tr.mu.Unlock()
	if err := tr.Write(context.Background(), []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Write() error = %v, want ErrNotConnected", err)
	}
}

func TestBLETransport_DisconnectReleasesBusAndWatcher(t *testing.T) {
	bus := newFakeBus()
	bus.addCharacteristic(candidateServices[0], candidateCharacteristics[0], []string{"write"})

	tr := newTestTransport(bus)
	if err := tr.Connect(context.Background(), testAddress); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	watchDone := tr.watchDone

	if err := tr.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	select {
	case <-watchDone:
	case <-time.After(2 * time.Second):
		t.Fatal("watch goroutine still running after Disconnect")
	}
	if n := bus.subscriberCount(); n != 0 {
		t.Errorf("subscriber count after Disconnect = %d, want 0", n)
	}
	if n := bus.closeCount(); n != 1 {
		t.Errorf("bus close count = %d, want 1", n)
	}
	if tr.State() != StateIdle {
		t.Errorf("State() after Disconnect = %v, want idle", tr.State())
	}

	// The transport is reusable; a new connect re-dials the bus.
	if err := tr.Connect(context.Background(), testAddress); err != nil {
		t.Fatalf("Connect() after Disconnect error = %v", err)
	}
	if tr.State() != StateConnected {
		t.Errorf("State() after reconnect = %v, want connected", tr.State())
	}
}

func TestBLETransport_ScanEmitsKnownDevices(t *testing.T) {
	bus := newFakeBus()
	bus.objects[devicePathFor(testAddress)] = map[string]map[string]dbus.Variant{
		ifaceDevice: {
			"Address": dbus.MakeVariant(testAddress),
			"Name":    dbus.MakeVariant("ThermalPrinter"),
		},
	}

	tr := newTestTransport(bus)
	ctx, cancel := context.WithCancel(context.Background())
	var devices []Device
	done := make(chan error, 1)
	go func() {
		done <- tr.Scan(ctx, func(d Device) {
			devices = append(devices, d)
			cancel()
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Scan() did not return after cancel")
	}
	if len(devices) != 1 || devices[0].Address != testAddress {
		t.Fatalf("devices = %+v, want one entry for %s", devices, testAddress)
	}
	if devices[0].Name != "ThermalPrinter" {
		t.Errorf("device name = %q", devices[0].Name)
	}
}
