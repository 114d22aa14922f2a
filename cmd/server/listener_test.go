package server

import (
	"net"
	"path/filepath"
	"testing"
)

func TestCreateListeners(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "run", "rtunnel.sock")
	listeners, err := CreateListeners([]ListenAddr{
		{Network: "tcp", Address: "127.0.0.1:0"},
		{Network: "unix", Address: sock},
	})
	if err != nil {
		t.Fatalf("CreateListeners failed: %v", err)
	}
	defer func() {
		for _, l := range listeners {
			l.Close()
		}
	}()
	if len(listeners) != 2 {
		t.Fatalf("got %d listeners", len(listeners))
	}

	conn, err := net.Dial("unix", sock)
	if err != nil {
		t.Fatalf("dial socket: %v", err)
	}
	conn.Close()
}

func TestCreateListenersPartialFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	listeners, err := CreateListeners([]ListenAddr{
		{Network: "tcp", Address: busy.Addr().String()},
		{Network: "tcp", Address: "127.0.0.1:0"},
	})
	if err == nil {
		t.Errorf("expected error for the busy address")
	}
	if len(listeners) != 1 {
		t.Errorf("got %d listeners, want 1", len(listeners))
	}
	for _, l := range listeners {
		l.Close()
	}
}
