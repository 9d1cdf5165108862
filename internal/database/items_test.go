package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"
)

func setupItemTest(t *testing.T) (*Service, func()) {
	service, err := NewTestService()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, "alice", "alice@example.com"); err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
	if _, err := service.CreateUser(ctx, "bob", "bob@example.com"); err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}

	cleanup := func() {
		service.Close()
	}
	return service, cleanup
}

func TestCreateItem_Defaults(t *testing.T) {
	service, cleanup := setupItemTest(t)
	defer cleanup()

	item, err := service.CreateItem(context.Background(), "Camera", "Vintage film camera", 1)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if item.Status != models.ItemAvailable {
		t.Errorf("New item should be AVAILABLE, got %s", item.Status)
	}
	if item.OwnerId != 1 {
		t.Errorf("Expected owner 1, got %d", item.OwnerId)
	}
	if item.PreviousOwnerId != nil || item.TradedAt != nil {
		t.Error("New item should carry no trade history")
	}
}

func TestGetItem_NotFound(t *testing.T) {
	service, cleanup := setupItemTest(t)
	defer cleanup()

	_, err := service.GetItem(context.Background(), 999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSetItemStatus(t *testing.T) {
	service, cleanup := setupItemTest(t)
	defer cleanup()
	ctx := context.Background()

	item, err := service.CreateItem(ctx, "Camera", "", 1)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	if err := SetItemStatusTx(ctx, service.DB(), item.Id, models.ItemPending); err != nil {
		t.Fatalf("SetItemStatusTx failed: %v", err)
	}

	got, err := service.GetItem(ctx, item.Id)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got.Status != models.ItemPending {
		t.Errorf("Expected PENDING, got %s", got.Status)
	}

	if err := SetItemStatusTx(ctx, service.DB(), 999, models.ItemPending); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing item, got %v", err)
	}
}

func TestTransferItem(t *testing.T) {
	service, cleanup := setupItemTest(t)
	defer cleanup()
	ctx := context.Background()

	camera, err := service.CreateItem(ctx, "Camera", "", 1)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	guitar, err := service.CreateItem(ctx, "Guitar", "", 2)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	now := time.Now()
	if err := TransferItemTx(ctx, service.DB(), camera.Id, 2, 1, guitar.Id, now); err != nil {
		t.Fatalf("TransferItemTx failed: %v", err)
	}

	got, err := service.GetItem(ctx, camera.Id)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got.OwnerId != 2 {
		t.Errorf("Expected new owner 2, got %d", got.OwnerId)
	}
	if got.Status != models.ItemTraded {
		t.Errorf("Expected TRADED, got %s", got.Status)
	}
	if got.PreviousOwnerId == nil || *got.PreviousOwnerId != 1 {
		t.Errorf("Expected previous owner 1, got %v", got.PreviousOwnerId)
	}
	if got.TradedForItemId == nil || *got.TradedForItemId != guitar.Id {
		t.Errorf("Expected traded-for item %d, got %v", guitar.Id, got.TradedForItemId)
	}
	if got.TradedAt == nil {
		t.Error("Expected traded-at timestamp")
	}
}

func TestListItemsByOwner(t *testing.T) {
	service, cleanup := setupItemTest(t)
	defer cleanup()
	ctx := context.Background()

	for _, title := range []string{"Camera", "Keyboard"} {
		if _, err := service.CreateItem(ctx, title, "", 1); err != nil {
			t.Fatalf("CreateItem failed: %v", err)
		}
	}
	if _, err := service.CreateItem(ctx, "Guitar", "", 2); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	items, err := service.ListItemsByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("ListItemsByOwner failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(items))
	}
}

func TestCreateUser_StartingScore(t *testing.T) {
	service, cleanup := setupItemTest(t)
	defer cleanup()

	user, err := service.CreateUser(context.Background(), "carol", "carol@example.com")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.CreditScore != 100 {
		t.Errorf("Expected starting credit score 100, got %d", user.CreditScore)
	}
}
