package core

import (
	"context"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed while waiting for event kind %v", kind)
			}
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(wait):
	}
}

func mustClosed(t *testing.T, ch <-chan *Event) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("channel not closed")
		}
	}
}

func startHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(opts...)
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

func newRegistered(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(id, "test:"+id, 16)
	if !hub.RegisterClient(c) {
		t.Fatalf("register %s: hub stopped", id)
	}
	return c
}

func loginAs(t *testing.T, hub *Hub, c *Client, name string) {
	t.Helper()

	hub.Submit(c, &Command{Kind: CommandLogin, Name: name})
	ev := <-c.Events
	if ev == nil || ev.Kind != EventReply || ev.Command != CommandLogin {
		t.Fatalf("login %s: unexpected event %+v", name, ev)
	}
}

// call submits cmd and returns the next event addressed to c.
func call(t *testing.T, hub *Hub, c *Client, cmd *Command) *Event {
	t.Helper()

	hub.Submit(c, cmd)
	select {
	case ev, ok := <-c.Events:
		if !ok {
			t.Fatalf("%s: outbox closed", cmd.Kind)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("%s: no reply", cmd.Kind)
	}
	return nil
}

func mustErrorCode(t *testing.T, ev *Event, code string) {
	t.Helper()

	if ev.Kind != EventError || ev.Error == nil {
		t.Fatalf("expected error %s, got %+v", code, ev)
	}
	if ev.Error.Code != code {
		t.Fatalf("expected error code %s, got %s (%s)", code, ev.Error.Code, ev.Error.Message)
	}
}
