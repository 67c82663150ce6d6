package websocket

import (
	"testing"
	"time"
)

func TestServerStopUnblocksStart(t *testing.T) {
	s := NewServer(":0")
	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	// Let the listener come up before shutting it down.
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() returned %v after Stop, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() still blocked after Stop")
	}

	// A second Stop is a no-op.
	s.Stop()
}

func TestServerStatusBeforeStart(t *testing.T) {
	s := NewServer(":8080")
	if got := s.GetConnectedClients(); len(got) != 0 {
		t.Errorf("GetConnectedClients() on fresh server = %v, want empty", got)
	}
	if s.GetPort() != ":8080" {
		t.Errorf("GetPort() = %q", s.GetPort())
	}
}
