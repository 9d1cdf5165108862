package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus is the lifecycle state of a trade request.
// COMPLETED, REJECTED and CANCELLED are terminal.
type TradeStatus string

const (
	TradePending     TradeStatus = "PENDING"
	TradeAccepted    TradeStatus = "ACCEPTED"
	TradeDepositPaid TradeStatus = "DEPOSIT_PAID"
	TradeShipping    TradeStatus = "SHIPPING"
	TradeDelivered   TradeStatus = "DELIVERED"
	TradeCompleted   TradeStatus = "COMPLETED"
	TradeRejected    TradeStatus = "REJECTED"
	TradeCancelled   TradeStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are legal from s.
func (s TradeStatus) Terminal() bool {
	return s == TradeCompleted || s == TradeRejected || s == TradeCancelled
}

// TradeMode governs which transitions are legal. Fixed at creation.
type TradeMode string

const (
	ModeInPerson TradeMode = "IN_PERSON"
	ModeRemote   TradeMode = "REMOTE"
)

// ConfirmState is the two-phase completion sub-state. Tracking the confirming
// party explicitly keeps the transition table exhaustive; a boolean pair would
// allow states the machine never defines.
type ConfirmState string

const (
	ConfirmedNone      ConfirmState = "NONE"
	ConfirmedRequester ConfirmState = "REQUESTER"
	ConfirmedTarget    ConfirmState = "TARGET"
	ConfirmedBoth      ConfirmState = "BOTH"
)

// RequesterConfirmed reports whether the requester has confirmed completion.
func (c ConfirmState) RequesterConfirmed() bool {
	return c == ConfirmedRequester || c == ConfirmedBoth
}

// TargetConfirmed reports whether the target owner has confirmed completion.
func (c ConfirmState) TargetConfirmed() bool {
	return c == ConfirmedTarget || c == ConfirmedBoth
}

// TradeRequest is the central aggregate. It is mutated exclusively through the
// trade service and never deleted; terminal states are permanent history.
type TradeRequest struct {
	Id             int64           `json:"id"`
	RequesterId    int64           `json:"requester_id"`
	TargetItemId   int64           `json:"target_item_id"`
	OfferedItemId  int64           `json:"offered_item_id"`
	TargetOwnerId  int64           `json:"target_owner_id"`
	Message        string          `json:"message,omitempty"`
	Status         TradeStatus     `json:"status"`
	TradeMode      TradeMode       `json:"trade_mode"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`

	ConfirmState ConfirmState `json:"confirm_state"`

	RequesterTrackingNo string     `json:"requester_tracking_no,omitempty"`
	TargetTrackingNo    string     `json:"target_tracking_no,omitempty"`
	RequesterShippedAt  *time.Time `json:"requester_shipped_at,omitempty"`
	TargetShippedAt     *time.Time `json:"target_shipped_at,omitempty"`

	RequesterDepositPaid bool `json:"requester_deposit_paid"`
	TargetDepositPaid    bool `json:"target_deposit_paid"`

	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsParty reports whether userId is the requester or the target-item owner.
func (t *TradeRequest) IsParty(userId int64) bool {
	return userId == t.RequesterId || userId == t.TargetOwnerId
}

// Counterparty returns the other party of the trade.
func (t *TradeRequest) Counterparty(userId int64) int64 {
	if userId == t.RequesterId {
		return t.TargetOwnerId
	}
	return t.RequesterId
}

// DepositStatus is the lifecycle of an escrowed deposit row.
// REFUNDED and FORFEITED are terminal; the amount is fixed once FROZEN.
type DepositStatus string

const (
	DepositPending   DepositStatus = "PENDING"
	DepositFrozen    DepositStatus = "FROZEN"
	DepositRefunded  DepositStatus = "REFUNDED"
	DepositForfeited DepositStatus = "FORFEITED"
)

// TradeDeposit records the frozen escrow owed by one party of a remote trade.
// At most one row exists per (trade, user).
type TradeDeposit struct {
	Id           string          `json:"id"`
	TradeId      int64           `json:"trade_id"`
	UserId       int64           `json:"user_id"`
	PointsAmount int64           `json:"points_amount"`
	CashAmount   decimal.Decimal `json:"cash_amount"`
	Status       DepositStatus   `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	ReleasedAt   *time.Time      `json:"released_at,omitempty"`
}
