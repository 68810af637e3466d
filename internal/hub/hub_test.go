package hub

import (
	"errors"
	"testing"
)

type testWriter struct {
	writes [][]byte
	fail   bool
	closed bool
}

func (w *testWriter) Write(message []byte) error {
	w.writes = append(w.writes, message)
	if w.fail {
		return errTest
	}
	return nil
}

func (w *testWriter) Close() error {
	w.closed = true
	return nil
}

var errTest = errors.New("test")

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	h := New()
	w1 := &testWriter{}
	c1 := &Connection{UserID: "u", Writer: w1}

	h.Register(c1)
	h.Broadcast("u", []byte("x"))
	if len(w1.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(w1.writes))
	}

	h.Unregister(c1)
	h.Broadcast("u", []byte("x"))
	if len(w1.writes) != 1 {
		t.Fatalf("expected no more writes, got %d", len(w1.writes))
	}
	if h.Count("u") != 0 {
		t.Fatalf("Count() = %d, want 0", h.Count("u"))
	}
}

func TestHub_RemovesFailedConnections(t *testing.T) {
	h := New()
	w1 := &testWriter{fail: true}
	c1 := &Connection{UserID: "u", Writer: w1}
	h.Register(c1)

	h.Broadcast("u", []byte("x"))
	h.Broadcast("u", []byte("x"))
	if len(w1.writes) != 1 {
		t.Fatalf("expected only 1 write before removal, got %d", len(w1.writes))
	}
	if !w1.closed {
		t.Fatal("failed connection should be closed")
	}
}

func TestHub_PublishIsolatesUsers(t *testing.T) {
	h := New()
	wa, wb := &testWriter{}, &testWriter{}
	h.Register(&Connection{UserID: "a", Writer: wa})
	h.Register(&Connection{UserID: "b", Writer: wb})

	h.Publish("a", map[string]string{"type": "conversation.updated"})
	h.Publish("", map[string]string{"type": "ignored"})

	if len(wa.writes) != 1 || string(wa.writes[0]) != `{"type":"conversation.updated"}` {
		t.Fatalf("writes for a = %q", wa.writes)
	}
	if len(wb.writes) != 0 {
		t.Fatalf("user b should not receive a's events, got %d", len(wb.writes))
	}
}
