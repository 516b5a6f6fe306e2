package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   nil,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "alice")
	c2 := mockClient(hub, "alice")

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount("alice"); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount("alice"); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount("alice"); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "alice")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount("alice"); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestNotifyReachesOnlyOwningUser(t *testing.T) {
	hub := NewHub(slog.Default())

	alice1 := mockClient(hub, "alice")
	alice2 := mockClient(hub, "alice")
	bob := mockClient(hub, "bob")
	hub.Register(alice1)
	hub.Register(alice2)
	hub.Register(bob)

	msg := NewMessage("template", "created", "tpl-1", map[string]any{"day": "2024-03-01"})
	hub.Notify("alice", msg)

	for _, c := range []*Client{alice1, alice2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "template_created" {
				t.Errorf("expected type template_created, got %s", got.Type)
			}
			if got.Entity != "template" {
				t.Errorf("expected entity template, got %s", got.Entity)
			}
			if got.ID != "tpl-1" {
				t.Errorf("expected id tpl-1, got %s", got.ID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	select {
	case <-bob.send:
		t.Fatal("bob should not receive alice's notification")
	default:
	}

	hub.Unregister(alice1)
	hub.Unregister(alice2)
	hub.Unregister(bob)
}

func TestNotifyUnknownUser(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	msg := NewMessage("completion", "toggled", "cmp-1", nil)
	hub.Notify("nobody", msg)
}

func TestNotifyFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, "alice")
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Notify("alice", NewMessage("test", "fill", "x", nil))
	}

	// This should drop the message, not panic or block
	hub.Notify("alice", NewMessage("test", "dropped", "y", nil))

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("reward", "updated", "rw-5", nil)
	if msg.Type != "reward_updated" {
		t.Errorf("expected type reward_updated, got %s", msg.Type)
	}
	if msg.Entity != "reward" {
		t.Errorf("expected entity reward, got %s", msg.Entity)
	}
	if msg.Action != "updated" {
		t.Errorf("expected action updated, got %s", msg.Action)
	}
	if msg.ID != "rw-5" {
		t.Errorf("expected id rw-5, got %s", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Goroutines register, notify, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "alice")
			hub.Register(c)
			hub.Notify("alice", NewMessage("test", "concurrent", "", nil))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount("alice"); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
