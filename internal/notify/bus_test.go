package notify

import (
	"testing"
	"time"
)

func receive(t *testing.T, sub *Subscriber) Notification {
	t.Helper()
	select {
	case n := <-sub.Notifications:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return Notification{}
	}
}

func TestBusKeyFiltering(t *testing.T) {
	bus := NewBus()

	all := bus.Subscribe()
	onlyWS1 := bus.Subscribe("ws-1")
	defer bus.Unsubscribe(all.ID)
	defer bus.Unsubscribe(onlyWS1.ID)

	bus.SendNotification("ws-1", DidUpdateWorkspaceApps).Payload("a").Send()
	bus.SendNotification("ws-2", DidUpdateWorkspaceApps).Payload("b").Send()

	n := receive(t, all)
	if n.Key != "ws-1" {
		t.Errorf("expected ws-1 first, got %s", n.Key)
	}
	n = receive(t, all)
	if n.Key != "ws-2" {
		t.Errorf("expected ws-2 second, got %s", n.Key)
	}

	n = receive(t, onlyWS1)
	if n.Key != "ws-1" {
		t.Errorf("filtered subscriber got %s", n.Key)
	}
	select {
	case n := <-onlyWS1.Notifications:
		t.Errorf("filtered subscriber should not receive %s", n.Key)
	default:
	}
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := NewBus()

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub.ID)

	// Nobody drains; channel buffer fills and further sends drop
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < DefaultChannelBufferSize*2; i++ {
			bus.SendNotification("k", DidUpdateApp).Send()
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	sub := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}

	bus.Unsubscribe(sub.ID)
	if bus.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}

	select {
	case <-sub.Done:
	default:
		t.Error("Done should be closed after Unsubscribe")
	}
}

func TestNotificationFields(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub.ID)

	bus.SendNotification("app-1", DidUpdateApp).Payload(map[string]string{"name": "x"}).Send()

	n := receive(t, sub)
	if n.ID == "" {
		t.Error("notification id should be set")
	}
	if n.Type != DidUpdateApp {
		t.Errorf("expected type %s, got %s", DidUpdateApp, n.Type)
	}
	if n.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}
