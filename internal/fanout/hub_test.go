package fanout

import (
	"testing"
	"time"
)

func recvEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	h := NewHub(nil)
	a := h.Subscribe("chan-1")
	b := h.Subscribe("chan-1")

	h.Publish("chan-1", Event{Type: "tip", PhotoID: 3, Units: 100})

	for _, sub := range []*Subscriber{a, b} {
		ev := recvEvent(t, sub)
		if ev.Type != "tip" || ev.PhotoID != 3 || ev.Units != 100 {
			t.Errorf("event = %+v, want tip/3/100", ev)
		}
	}
}

func TestPublishIsScopedToChannel(t *testing.T) {
	h := NewHub(nil)
	other := h.Subscribe("chan-2")

	h.Publish("chan-1", Event{Type: "tip"})

	select {
	case ev := <-other.Events():
		t.Errorf("subscriber of chan-2 received %+v from chan-1", ev)
	default:
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	h := NewHub(nil)
	slow := h.Subscribe("chan-1")

	// Nobody drains slow; well past the buffer size, Publish must return.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish("chan-1", Event{Type: "tip", Units: int64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a subscriber that never reads")
	}

	// The buffer holds the first events; the rest were dropped, not queued.
	if got := len(slow.ch); got != subscriberBuffer {
		t.Errorf("buffered events = %d, want %d", got, subscriberBuffer)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(nil)
	sub := h.Subscribe("chan-1")
	h.Unsubscribe("chan-1", sub)

	h.Publish("chan-1", Event{Type: "tip"})

	select {
	case ev := <-sub.Events():
		t.Errorf("unsubscribed client received %+v", ev)
	default:
	}

	h.mu.RLock()
	_, exists := h.subs["chan-1"]
	h.mu.RUnlock()
	if exists {
		t.Error("empty subscriber set should be dropped from the registry")
	}
}
