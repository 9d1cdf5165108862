package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's points and cash alongside the portion of each that is
// frozen for open deposits. available = total - frozen, and is never negative.
type Wallet struct {
	UserId        int64           `json:"user_id"`
	Points        int64           `json:"points"`
	Balance       decimal.Decimal `json:"balance"`
	FrozenPoints  int64           `json:"frozen_points"`
	FrozenBalance decimal.Decimal `json:"frozen_balance"`
	LastSignInDay string          `json:"-"`
	SignInStreak  int64           `json:"sign_in_streak"`
	Version       int64           `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AvailablePoints returns the points not committed to open deposits.
func (w *Wallet) AvailablePoints() int64 {
	return w.Points - w.FrozenPoints
}

// AvailableBalance returns the cash not committed to open deposits.
func (w *Wallet) AvailableBalance() decimal.Decimal {
	return w.Balance.Sub(w.FrozenBalance)
}

// TransactionType classifies a wallet ledger entry.
type TransactionType string

const (
	TxnRecharge        TransactionType = "RECHARGE"
	TxnSignIn          TransactionType = "SIGN_IN"
	TxnInviteReward    TransactionType = "INVITE_REWARD"
	TxnDepositFreeze   TransactionType = "DEPOSIT_FREEZE"
	TxnDepositUnfreeze TransactionType = "DEPOSIT_UNFREEZE"
	TxnDepositForfeit  TransactionType = "DEPOSIT_FORFEIT"
	TxnDepositReceive  TransactionType = "DEPOSIT_RECEIVE"
)

// WalletTransaction is one immutable row of the wallet audit trail. Freeze and
// unfreeze entries carry availability deltas; the wallet totals are unchanged
// by them, only by forfeit/receive and the additive credit operations.
type WalletTransaction struct {
	Id            string          `json:"id"`
	UserId        int64           `json:"user_id"`
	Type          TransactionType `json:"type"`
	PointsChange  int64           `json:"points_change"`
	BalanceChange decimal.Decimal `json:"balance_change"`
	PointsAfter   int64           `json:"points_after"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description"`
	RelatedId     *int64          `json:"related_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
