package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishStoreChanged(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishStoreChanged(StoreChange{Revision: 7, Reason: "sync", Count: 3})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "event: store.changed\n") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"revision":7`) || !strings.Contains(s, `"reason":"sync"`) {
			t.Errorf("missing data in %q", s)
		}
		if !strings.HasSuffix(s, "\n\n") {
			t.Errorf("frame not terminated: %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestNewClientGetsLatestRevision(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	first := b.Subscribe()
	defer b.Unsubscribe(first)

	b.PublishStoreChanged(StoreChange{Revision: 1, Reason: "seed", Count: 4})
	b.PublishStoreChanged(StoreChange{Revision: 2, Reason: "form", Count: 1})
	b.Publish(Event{Type: TypeOperationChanged, Data: map[string]string{"name": "sync"}})

	// Wait until the loop has broadcast all three frames.
	for i := range 3 {
		select {
		case <-first:
		case <-time.After(time.Second):
			t.Fatalf("frame %d not delivered", i)
		}
	}

	late := b.Subscribe()
	defer b.Unsubscribe(late)

	select {
	case msg := <-late:
		s := string(msg)
		if !strings.Contains(s, "event: store.changed\nid: 2\n") || !strings.Contains(s, `"revision":2`) {
			t.Errorf("replayed frame = %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("no replay for new client")
	}
}

func TestClockTick(t *testing.T) {
	b := NewBroker(20 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: clock.tick") {
			t.Errorf("unexpected message %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no clock tick received")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeOperationChanged, Data: map[string]string{"name": "sync", "state": "in_flight"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: operation.changed") {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := range 70 {
		b.PublishStoreChanged(StoreChange{Revision: uint64(i)})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(time.Minute)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.PublishStoreChanged(StoreChange{Revision: 1})
}
