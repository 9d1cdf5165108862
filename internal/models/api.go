package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTradeRequest is the payload for opening a trade.
type CreateTradeRequest struct {
	TargetItemId   int64           `json:"target_item_id"`
	OfferedItemId  int64           `json:"offered_item_id"`
	TradeMode      TradeMode       `json:"trade_mode"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Message        string          `json:"message"`
}

// TransitionRequest asks for a status change on an existing trade.
type TransitionRequest struct {
	Status TradeStatus `json:"status"`
}

// ShipRequest carries the shipping party's tracking number.
type ShipRequest struct {
	TrackingNo string `json:"tracking_no"`
}

// RechargeRequest tops up a wallet. Stub for a real payment gateway.
type RechargeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TradeResponse is the serializable projection returned by every trade
// operation.
type TradeResponse struct {
	Id             int64           `json:"id"`
	TargetItem     ItemBrief       `json:"target_item"`
	OfferedItem    ItemBrief       `json:"offered_item"`
	Requester      UserBrief       `json:"requester"`
	Message        string          `json:"message,omitempty"`
	Status         TradeStatus     `json:"status"`
	TradeMode      TradeMode       `json:"trade_mode"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`

	RequesterConfirmed bool `json:"requester_confirmed"`
	TargetConfirmed    bool `json:"target_confirmed"`

	RequesterDepositPaid bool `json:"requester_deposit_paid"`
	TargetDepositPaid    bool `json:"target_deposit_paid"`

	RequesterTrackingNo string     `json:"requester_tracking_no,omitempty"`
	TargetTrackingNo    string     `json:"target_tracking_no,omitempty"`
	RequesterShippedAt  *time.Time `json:"requester_shipped_at,omitempty"`
	TargetShippedAt     *time.Time `json:"target_shipped_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DepositQuote is the result of a deposit calculation: how much a prospective
// remote trade would cost the user and whether their wallet covers it.
type DepositQuote struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	Ratio       decimal.Decimal `json:"ratio"`
	PointsPart  int64           `json:"points_part"`
	CashPart    decimal.Decimal `json:"cash_part"`
	CanAfford   bool            `json:"can_afford"`
}

// WalletResponse is the wallet read projection, including sign-in state.
type WalletResponse struct {
	Points           int64           `json:"points"`
	Balance          decimal.Decimal `json:"balance"`
	FrozenPoints     int64           `json:"frozen_points"`
	FrozenBalance    decimal.Decimal `json:"frozen_balance"`
	AvailablePoints  int64           `json:"available_points"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	SignedToday      bool            `json:"signed_today"`
	SignInStreak     int64           `json:"sign_in_streak"`
	NextSignInPoints int64           `json:"next_sign_in_points"`
}

// CreditResponse is the credit read projection.
type CreditResponse struct {
	Score        int             `json:"score"`
	Tier         CreditTier      `json:"tier"`
	DepositRatio decimal.Decimal `json:"deposit_ratio"`
	RemoteTrade  bool            `json:"remote_trade"`
}
