package notify

import (
	"context"
	"testing"

	"barter-trade-go/internal/database"
	"barter-trade-go/internal/models"
)

func setupNotifyTest(t *testing.T) (*Service, func()) {
	db, err := database.NewTestService()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if _, err := db.CreateUser(context.Background(), "alice", "alice@example.com"); err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}

	service := NewService(db, NewRegistry())
	cleanup := func() {
		db.Close()
	}
	return service, cleanup
}

func TestNotify_PersistsAndLists(t *testing.T) {
	service, cleanup := setupNotifyTest(t)
	defer cleanup()
	ctx := context.Background()

	service.Notify(ctx, models.Notification{
		RecipientId: 1,
		Title:       "Trade accepted",
		Body:        "bob accepted your trade request",
	})

	notifications, err := service.List(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications))
	}
	n := notifications[0]
	if n.Id == "" {
		t.Error("Expected generated id")
	}
	if n.Kind != models.NotificationTrade {
		t.Errorf("Expected default kind TRADE, got %s", n.Kind)
	}
	if n.Title != "Trade accepted" {
		t.Errorf("Unexpected title %q", n.Title)
	}
}

func TestNotify_DeliversToSubscriber(t *testing.T) {
	service, cleanup := setupNotifyTest(t)
	defer cleanup()

	ch, cancel := service.Registry().Subscribe(1)
	defer cancel()

	service.Notify(context.Background(), models.Notification{
		RecipientId: 1,
		Title:       "Item shipped",
	})

	select {
	case n := <-ch:
		if n.Title != "Item shipped" {
			t.Errorf("Unexpected title %q", n.Title)
		}
	default:
		t.Fatal("Expected a delivered notification")
	}
}

func TestRegistry_CancelRemovesSubscriber(t *testing.T) {
	registry := NewRegistry()

	_, cancel1 := registry.Subscribe(1)
	_, cancel2 := registry.Subscribe(1)
	if got := registry.Subscribers(1); got != 2 {
		t.Fatalf("Expected 2 subscribers, got %d", got)
	}

	cancel1()
	if got := registry.Subscribers(1); got != 1 {
		t.Errorf("Expected 1 subscriber, got %d", got)
	}

	cancel2()
	cancel2() // idempotent
	if got := registry.Subscribers(1); got != 0 {
		t.Errorf("Expected 0 subscribers, got %d", got)
	}
}

func TestRegistry_SlowConsumerSkipped(t *testing.T) {
	registry := NewRegistry()
	ch, cancel := registry.Subscribe(1)
	defer cancel()

	// Fill the buffer past capacity; Publish must not block.
	for i := 0; i < 32; i++ {
		registry.Publish(models.Notification{RecipientId: 1, Title: "n"})
	}

	if len(ch) != cap(ch) {
		t.Errorf("Expected a full buffer of %d, got %d", cap(ch), len(ch))
	}
}
