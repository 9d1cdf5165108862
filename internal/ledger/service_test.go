package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"barter-trade-go/internal/database"
	"barter-trade-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupLedgerTest(t *testing.T) (*Service, *database.Service, func()) {
	db, err := database.NewTestService()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if _, err := db.CreateUser(context.Background(), "alice", "alice@example.com"); err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
	if _, err := db.CreateUser(context.Background(), "bob", "bob@example.com"); err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}

	service := NewService(db)
	cleanup := func() {
		db.Close()
	}
	return service, db, cleanup
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Failed to parse decimal %q: %v", s, err)
	}
	return d
}

func TestGetWallet_CreatedOnFirstTouch(t *testing.T) {
	service, _, cleanup := setupLedgerTest(t)
	defer cleanup()

	wallet, err := service.GetWallet(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if wallet.Points != 0 {
		t.Errorf("Expected 0 points, got %d", wallet.Points)
	}
	if !wallet.Balance.Equal(decimal.Zero) {
		t.Errorf("Expected zero balance, got %s", wallet.Balance)
	}
	if wallet.SignedToday {
		t.Error("Fresh wallet should not be signed in")
	}
}

func TestRecharge(t *testing.T) {
	service, _, cleanup := setupLedgerTest(t)
	defer cleanup()
	ctx := context.Background()

	txn, err := service.Recharge(ctx, 1, mustDecimal(t, "50.00"))
	if err != nil {
		t.Fatalf("Recharge failed: %v", err)
	}
	if !txn.BalanceAfter.Equal(mustDecimal(t, "50.00")) {
		t.Errorf("Expected balance after 50.00, got %s", txn.BalanceAfter)
	}

	wallet, err := service.GetWallet(ctx, 1)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !wallet.Balance.Equal(mustDecimal(t, "50.00")) {
		t.Errorf("Expected balance 50.00, got %s", wallet.Balance)
	}
}

func TestRecharge_RejectsNonPositive(t *testing.T) {
	service, _, cleanup := setupLedgerTest(t)
	defer cleanup()

	_, err := service.Recharge(context.Background(), 1, decimal.Zero)
	if !errors.Is(err, store.ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation, got %v", err)
	}
}

func TestFreeze_InsufficientFunds(t *testing.T) {
	service, _, cleanup := setupLedgerTest(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := service.Recharge(ctx, 1, mustDecimal(t, "10.00")); err != nil {
		t.Fatalf("Recharge failed: %v", err)
	}

	err := service.Freeze(ctx, 1, 0, mustDecimal(t, "20.00"), 7)
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}

	err = service.Freeze(ctx, 1, 5, decimal.Zero, 7)
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds for points, got %v", err)
	}
}

func TestFreezeUnfreeze_RoundTrip(t *testing.T) {
	service, _, cleanup := setupLedgerTest(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := service.Recharge(ctx, 1, mustDecimal(t, "100.00")); err != nil {
		t.Fatalf("Recharge failed: %v", err)
	}

	if err := service.Freeze(ctx, 1, 0, mustDecimal(t, "40.00"), 7); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}

	wallet, err := service.GetWallet(ctx, 1)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !wallet.Balance.Equal(mustDecimal(t, "100.00")) {
		t.Errorf("Freeze must not change the total balance, got %s", wallet.Balance)
	}
	if !wallet.FrozenBalance.Equal(mustDecimal(t, "40.00")) {
		t.Errorf("Expected frozen balance 40.00, got %s", wallet.FrozenBalance)
	}
	if !wallet.AvailableBalance.Equal(mustDecimal(t, "60.00")) {
		t.Errorf("Expected available balance 60.00, got %s", wallet.AvailableBalance)
	}

	if err := service.Unfreeze(ctx, 1, 0, mustDecimal(t, "40.00"), 7); err != nil {
		t.Fatalf("Unfreeze failed: %v", err)
	}

	wallet, err = service.GetWallet(ctx, 1)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !wallet.FrozenBalance.Equal(decimal.Zero) {
		t.Errorf("Expected zero frozen balance, got %s", wallet.FrozenBalance)
	}
	if !wallet.AvailableBalance.Equal(mustDecimal(t, "100.00")) {
		t.Errorf("Expected available balance 100.00, got %s", wallet.AvailableBalance)
	}
}

func TestForfeit_TransfersToReceiver(t *testing.T) {
	service, _, cleanup := setupLedgerTest(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := service.Recharge(ctx, 1, mustDecimal(t, "100.00")); err != nil {
		t.Fatalf("Recharge failed: %v", err)
	}
	if err := service.Freeze(ctx, 1, 0, mustDecimal(t, "30.00"), 7); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}

	if err := service.Forfeit(ctx, 1, 2, 0, mustDecimal(t, "30.00"), 7); err != nil {
		t.Fatalf("Forfeit failed: %v", err)
	}

	violator, err := service.GetWallet(ctx, 1)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !violator.Balance.Equal(mustDecimal(t, "70.00")) {
		t.Errorf("Expected violator balance 70.00, got %s", violator.Balance)
	}
	if !violator.FrozenBalance.Equal(decimal.Zero) {
		t.Errorf("Expected violator frozen balance 0, got %s", violator.FrozenBalance)
	}

	receiver, err := service.GetWallet(ctx, 2)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !receiver.Balance.Equal(mustDecimal(t, "30.00")) {
		t.Errorf("Expected receiver balance 30.00, got %s", receiver.Balance)
	}

	txns, err := service.GetTransactions(ctx, 2, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactions failed: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("Expected 1 receiver transaction, got %d", len(txns))
	}
}

func TestSignIn_StreakGrowsAndResets(t *testing.T) {
	service, _, cleanup := setupLedgerTest(t)
	defer cleanup()
	ctx := context.Background()

	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day2.AddDate(0, 0, 1)
	day5 := day3.AddDate(0, 0, 2)

	txn, err := service.signInAt(ctx, 1, day1)
	if err != nil {
		t.Fatalf("Sign-in failed: %v", err)
	}
	if txn.PointsChange != 1 {
		t.Errorf("Day 1 should award 1 point, got %d", txn.PointsChange)
	}

	txn, err = service.signInAt(ctx, 1, day2)
	if err != nil {
		t.Fatalf("Sign-in failed: %v", err)
	}
	if txn.PointsChange != 2 {
		t.Errorf("Day 2 should award 2 points, got %d", txn.PointsChange)
	}

	txn, err = service.signInAt(ctx, 1, day3)
	if err != nil {
		t.Fatalf("Sign-in failed: %v", err)
	}
	if txn.PointsChange != 3 {
		t.Errorf("Day 3 should award 3 points, got %d", txn.PointsChange)
	}

	// A missed day resets the streak.
	txn, err = service.signInAt(ctx, 1, day5)
	if err != nil {
		t.Fatalf("Sign-in failed: %v", err)
	}
	if txn.PointsChange != 1 {
		t.Errorf("Broken streak should award 1 point, got %d", txn.PointsChange)
	}

	if txn.PointsAfter != 1+2+3+1 {
		t.Errorf("Expected 7 total points, got %d", txn.PointsAfter)
	}
}

func TestSignIn_SameDayRejected(t *testing.T) {
	service, _, cleanup := setupLedgerTest(t)
	defer cleanup()
	ctx := context.Background()

	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if _, err := service.signInAt(ctx, 1, day); err != nil {
		t.Fatalf("Sign-in failed: %v", err)
	}

	_, err := service.signInAt(ctx, 1, day.Add(4*time.Hour))
	if !errors.Is(err, store.ErrAlreadySignedIn) {
		t.Errorf("Expected ErrAlreadySignedIn, got %v", err)
	}
}

func TestReferralReward(t *testing.T) {
	service, _, cleanup := setupLedgerTest(t)
	defer cleanup()

	txn, err := service.ReferralReward(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ReferralReward failed: %v", err)
	}
	if txn.PointsChange != referralRewardPoints {
		t.Errorf("Expected %d points, got %d", referralRewardPoints, txn.PointsChange)
	}
	if txn.RelatedId == nil || *txn.RelatedId != 2 {
		t.Errorf("Expected related id 2, got %v", txn.RelatedId)
	}
}

func TestUpdateWallet_StaleVersionLoses(t *testing.T) {
	service, db, cleanup := setupLedgerTest(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := service.Recharge(ctx, 1, mustDecimal(t, "50.00")); err != nil {
		t.Fatalf("Recharge failed: %v", err)
	}

	stale, err := GetWalletTx(ctx, db.DB(), 1)
	if err != nil {
		t.Fatalf("GetWalletTx failed: %v", err)
	}

	// A concurrent recharge wins the race and bumps the version.
	if _, err := service.Recharge(ctx, 1, mustDecimal(t, "25.00")); err != nil {
		t.Fatalf("Recharge failed: %v", err)
	}

	stale.Points += 100
	err = updateWallet(ctx, db.DB(), stale)
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification for a stale write, got %v", err)
	}

	wallet, err := GetWalletTx(ctx, db.DB(), 1)
	if err != nil {
		t.Fatalf("GetWalletTx failed: %v", err)
	}
	if wallet.Points != 0 {
		t.Errorf("Stale write must not land, got %d points", wallet.Points)
	}
	if !wallet.Balance.Equal(mustDecimal(t, "75.00")) {
		t.Errorf("Expected balance 75.00, got %s", wallet.Balance)
	}
}
