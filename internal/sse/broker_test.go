package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultid/internal/models"
)

func next(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
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

func TestPublishProgress(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishProgress("ulid", models.OperationAdd, 1, 3)

	s := next(t, ch)
	if !strings.HasPrefix(s, "event: bulk.progress\n") {
		t.Errorf("missing event type in %q", s)
	}
	want := `{"scheme":"ulid","operation":"add","completed":1,"total":3,"percent":33}`
	if !strings.Contains(s, want) {
		t.Errorf("payload = %q, want %s", s, want)
	}
}

func TestPublishResult(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishResult(models.BulkResult{
		Changed:   2,
		Operation: models.OperationRemove,
		Scheme:    "uuid",
		Total:     5,
		Failed:    []models.Failure{{Path: "x.md", Err: "boom"}},
	})

	s := next(t, ch)
	if !strings.Contains(s, "event: bulk.completed") {
		t.Errorf("missing event type in %q", s)
	}
	for _, frag := range []string{`"changed":2`, `"operation":"remove"`, `"path":"x.md"`} {
		if !strings.Contains(s, frag) {
			t.Errorf("missing %s in %q", frag, s)
		}
	}
}

func TestPublishNoteEvent_StatsThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent("created", "a.md")
	b.PublishNoteEvent("assigned", "a.md")

	time.Sleep(50 * time.Millisecond)
	statsCount := 0
	var noteEvents []string
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, EventStatsChanged) {
				statsCount++
			} else {
				noteEvents = append(noteEvents, s)
			}
		default:
			break loop
		}
	}

	if len(noteEvents) != 2 {
		t.Fatalf("note events = %d, want 2", len(noteEvents))
	}
	if !strings.Contains(noteEvents[0], EventNoteCreated) || !strings.Contains(noteEvents[1], EventNoteAssigned) {
		t.Errorf("unexpected note events: %q", noteEvents)
	}
	if statsCount != 1 {
		t.Errorf("stats events = %d, want 1 (throttled)", statsCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishProgress("uuid", models.OperationAdd, 0, 0)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: bulk.progress") {
		t.Errorf("handler output missing event: %q", body)
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.PublishProgress("uuid", models.OperationAdd, i, 70)
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
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

	b.PublishProgress("uuid", models.OperationAdd, 1, 1)
	b.PublishNoteEvent("assigned", "x.md")
}
