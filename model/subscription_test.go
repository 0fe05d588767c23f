package model

import (
	"testing"
	"time"

	"github.com/upnpforge/upnpstack/types"
)

func TestHostSubscriptionSEQWraps(t *testing.T) {
	sub := NewHostSubscription(types.NewSID(), nil, nil, types.ClampTimeout(1800))
	sub.seq = ^uint32(0)
	if got := sub.NextSEQ(); got != ^uint32(0) {
		t.Fatalf("expected first NextSEQ to return max uint32, got %d", got)
	}
	if got := sub.NextSEQ(); got != 0 {
		t.Errorf("expected SEQ to wrap to 0, got %d", got)
	}
}

func TestHostSubscriptionQueueFIFO(t *testing.T) {
	sub := NewHostSubscription(types.NewSID(), nil, nil, types.ClampTimeout(1800))
	sub.Enqueue([]byte("first"))
	sub.Enqueue([]byte("second"))

	body, ok := sub.Dequeue()
	if !ok || string(body) != "first" {
		t.Fatalf("expected first body, got %q, %v", body, ok)
	}
	body, ok = sub.Dequeue()
	if !ok || string(body) != "second" {
		t.Fatalf("expected second body, got %q, %v", body, ok)
	}
	if _, ok := sub.Dequeue(); ok {
		t.Error("expected empty queue after draining")
	}
}

func TestHostSubscriptionEnqueueGatesDrainStart(t *testing.T) {
	sub := NewHostSubscription(types.NewSID(), nil, nil, types.ClampTimeout(1800))

	if !sub.Enqueue([]byte("first")) {
		t.Fatal("expected first Enqueue on an idle subscription to start a drain")
	}
	if sub.Enqueue([]byte("second")) {
		t.Error("expected second Enqueue while still draining not to start another drain")
	}

	if _, ok := sub.Dequeue(); !ok {
		t.Fatal("expected first body")
	}
	if _, ok := sub.Dequeue(); !ok {
		t.Fatal("expected second body")
	}
	if _, ok := sub.Dequeue(); ok {
		t.Fatal("expected empty queue to clear the draining flag")
	}

	if !sub.Enqueue([]byte("third")) {
		t.Error("expected Enqueue after the queue drained to start a new drain")
	}
}

func TestClientSubscriptionCheckSEQ(t *testing.T) {
	c := NewClientSubscription(nil, "abc")
	c.MarkSubscribed(types.NewSID(), types.ClampTimeout(1800))

	if !c.CheckSEQ(0) {
		t.Fatal("expected first SEQ 0 to be accepted")
	}
	if !c.CheckSEQ(1) {
		t.Fatal("expected SEQ 1 to be accepted next")
	}
	if c.CheckSEQ(5) {
		t.Error("expected out-of-order SEQ to be rejected")
	}
}

func TestClientSubscriptionRetryBackoff(t *testing.T) {
	c := NewClientSubscription(nil, "abc")
	c.MarkFailed()
	if c.State() != ClientFailed {
		t.Fatalf("expected state Failed, got %v", c.State())
	}
	if c.ShouldRetry(time.Now()) {
		t.Error("expected no retry before the 30 s backoff has elapsed")
	}
	if !c.ShouldRetry(time.Now().Add(31 * time.Second)) {
		t.Error("expected a retry once the 30 s backoff has elapsed")
	}
}
