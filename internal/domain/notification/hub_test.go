package notification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	a := &Connection{UserID: uuid.New(), Send: make(chan []byte, 4)}
	b := &Connection{UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.Register(a)
	hub.Register(b)
	waitFor(t, func() bool { return hub.ConnectionCount() == 2 })

	hub.Emit(Event{Name: EventSwapCreated, Payload: map[string]string{"id": "x"}})

	for _, conn := range []*Connection{a, b} {
		select {
		case data := <-conn.Send:
			var got Event
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			if got.Name != EventSwapCreated {
				t.Fatalf("expected %s, got %s", EventSwapCreated, got.Name)
			}
		case <-time.After(time.Second):
			t.Fatal("client did not receive event")
		}
	}
}

func TestHubDropsFramesForSlowClient(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	slow := &Connection{UserID: uuid.New(), Send: make(chan []byte, 1)}
	hub.Register(slow)
	waitFor(t, func() bool { return hub.ConnectionCount() == 1 })

	// Second emit overflows the buffer; it must not block.
	done := make(chan struct{})
	go func() {
		hub.Emit(Event{Name: EventItemStatus})
		hub.Emit(Event{Name: EventItemStatus})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a slow client")
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	conn := &Connection{UserID: uuid.New(), Send: make(chan []byte, 1)}
	hub.Register(conn)
	waitFor(t, func() bool { return hub.ConnectionCount() == 1 })

	hub.Unregister(conn)
	waitFor(t, func() bool { return hub.ConnectionCount() == 0 })

	if _, ok := <-conn.Send; ok {
		t.Fatal("send channel not closed after unregister")
	}
}
