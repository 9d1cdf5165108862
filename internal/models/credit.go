package models

import "time"

// CreditChangeType classifies a reputation change.
type CreditChangeType string

const (
	CreditTradeComplete   CreditChangeType = "TRADE_COMPLETE"
	CreditGoodReview      CreditChangeType = "GOOD_REVIEW"
	CreditOnTimeShip      CreditChangeType = "ON_TIME_SHIP"
	CreditTradeCancel     CreditChangeType = "TRADE_CANCEL"
	CreditLateShip        CreditChangeType = "LATE_SHIP"
	CreditBadReview       CreditChangeType = "BAD_REVIEW"
	CreditReportConfirmed CreditChangeType = "REPORT_CONFIRMED"
	CreditDepositDefault  CreditChangeType = "DEPOSIT_DEFAULT"
)

// CreditTier is the discrete trust bucket derived from the running score.
type CreditTier string

const (
	TierNewbie    CreditTier = "NEWBIE"
	TierNormal    CreditTier = "NORMAL"
	TierGood      CreditTier = "GOOD"
	TierExcellent CreditTier = "EXCELLENT"
)

// CreditRecord is one immutable row of the reputation audit trail.
type CreditRecord struct {
	Id          string           `json:"id"`
	UserId      int64            `json:"user_id"`
	Type        CreditChangeType `json:"type"`
	ScoreChange int              `json:"score_change"`
	ScoreAfter  int              `json:"score_after"`
	Description string           `json:"description"`
	RelatedId   *int64           `json:"related_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
