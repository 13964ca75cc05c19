package hub

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func subscribe(h *Hub, buffer int) *Client {
	c := &Client{hub: h, send: make(chan Message, buffer)}
	h.register <- c
	return c
}

func waitCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("ClientCount = %d, want %d", h.ClientCount(), want)
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := New("state", testLogger())
	go h.Run()

	a := subscribe(h, 4)
	b := subscribe(h, 4)
	waitCount(t, h, 2)

	h.BroadcastBinary([]byte{0xff, 0xd8})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			if msg.Type != BinaryMessage || len(msg.Data) != 2 {
				t.Errorf("got %+v, want 2-byte binary message", msg)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the broadcast")
		}
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	h := New("video", testLogger())
	go h.Run()

	slow := subscribe(h, 1)
	waitCount(t, h, 1)

	// The first frame fills the buffer, the second forces the drop.
	h.BroadcastBinary([]byte{1})
	h.BroadcastBinary([]byte{2})
	waitCount(t, h, 0)

	// The hub closes the channel of a dropped subscriber.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-slow.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("send channel never closed")
		}
	}
}

func TestBroadcastJSON(t *testing.T) {
	h := New("state", testLogger())
	go h.Run()

	c := subscribe(h, 1)
	waitCount(t, h, 1)

	if err := h.BroadcastJSON(map[string]int{"degrees": 90}); err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-c.send:
		if msg.Type != JSONMessage {
			t.Errorf("Type = %v, want JSONMessage", msg.Type)
		}
		if string(msg.Data) != `{"degrees":90}` {
			t.Errorf("Data = %s", msg.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestUnregisterOnDisconnect(t *testing.T) {
	h := New("state", testLogger())
	go h.Run()

	c := subscribe(h, 1)
	waitCount(t, h, 1)

	h.unregister <- c
	waitCount(t, h, 0)
}
