package trade

import (
	"context"
	"fmt"
	"time"

	"barter-trade-go/internal/database"
	"barter-trade-go/internal/ledger"
	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// pointsPerUnit converts between points and cash: 100 points equal one
// currency unit.
var pointsPerUnit = decimal.NewFromInt(100)

// splitDeposit divides a deposit amount into a points part and a cash part,
// spending available points first. pointsPart is the number of points to
// freeze; cashPart covers the remainder.
func splitDeposit(amount decimal.Decimal, availablePoints int64) (int64, decimal.Decimal) {
	pointsNeeded := amount.Mul(pointsPerUnit).IntPart()
	pointsPart := pointsNeeded
	if availablePoints < pointsPart {
		pointsPart = availablePoints
	}
	if pointsPart < 0 {
		pointsPart = 0
	}
	cashPart := amount.Sub(decimal.NewFromInt(pointsPart).Div(pointsPerUnit))
	if cashPart.IsNegative() {
		cashPart = decimal.Zero
	}
	return pointsPart, cashPart
}

// CalculateDeposit quotes what paying the deposit on a trade would cost the
// user right now, without mutating anything.
func (s *Service) CalculateDeposit(ctx context.Context, tradeId, userId int64) (*models.DepositQuote, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trade, err := getTradeTx(ctx, tx, tradeId)
	if err != nil {
		return nil, err
	}
	if !trade.IsParty(userId) {
		return nil, fmt.Errorf("user %d is not a party to trade %d: %w", userId, tradeId, store.ErrPermissionDenied)
	}
	if trade.TradeMode != models.ModeRemote {
		return nil, fmt.Errorf("in-person trades carry no deposit: %w", store.ErrInvalidOperation)
	}

	user, err := database.GetUserTx(ctx, tx, userId)
	if err != nil {
		return nil, err
	}
	wallet, err := ledger.GetWalletTx(ctx, tx, userId)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	tier := s.credit.Policy().TierForScore(user.CreditScore)
	ratio := s.credit.Policy().DepositRatio(tier)
	amount := trade.EstimatedValue.Mul(ratio)
	pointsPart, cashPart := splitDeposit(amount, wallet.AvailablePoints())

	return &models.DepositQuote{
		TotalAmount: amount,
		Ratio:       ratio,
		PointsPart:  pointsPart,
		CashPart:    cashPart,
		CanAfford:   !cashPart.GreaterThan(wallet.AvailableBalance()),
	}, nil
}

// PayDeposit freezes one party's deposit on an accepted remote trade. When
// both parties have paid, the trade advances to DEPOSIT_PAID.
func (s *Service) PayDeposit(ctx context.Context, tradeId, userId int64) (*models.TradeResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trade, err := getTradeTx(ctx, tx, tradeId)
	if err != nil {
		return nil, err
	}
	if !trade.IsParty(userId) {
		return nil, fmt.Errorf("user %d is not a party to trade %d: %w", userId, tradeId, store.ErrPermissionDenied)
	}
	if trade.TradeMode != models.ModeRemote {
		return nil, fmt.Errorf("in-person trades carry no deposit: %w", store.ErrInvalidOperation)
	}
	if trade.Status != models.TradeAccepted {
		return nil, fmt.Errorf("deposits are paid from ACCEPTED, not %s: %w", trade.Status, store.ErrInvalidStateTransition)
	}

	isRequester := userId == trade.RequesterId
	if (isRequester && trade.RequesterDepositPaid) || (!isRequester && trade.TargetDepositPaid) {
		return nil, fmt.Errorf("deposit already paid for trade %d: %w", tradeId, store.ErrInvalidOperation)
	}

	user, err := database.GetUserTx(ctx, tx, userId)
	if err != nil {
		return nil, err
	}
	wallet, err := ledger.GetWalletTx(ctx, tx, userId)
	if err != nil {
		return nil, err
	}

	tier := s.credit.Policy().TierForScore(user.CreditScore)
	ratio := s.credit.Policy().DepositRatio(tier)
	amount := trade.EstimatedValue.Mul(ratio)
	pointsPart, cashPart := splitDeposit(amount, wallet.AvailablePoints())

	if err := s.ledger.FreezeTx(ctx, tx, userId, pointsPart, cashPart, trade.Id); err != nil {
		return nil, err
	}

	depositId := uuid.New().String()
	_, err = tx.ExecContext(ctx, queryInsertDeposit,
		depositId, trade.Id, userId, pointsPart, cashPart.String(), models.DepositFrozen, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to insert deposit: %w", err)
	}

	if isRequester {
		trade.RequesterDepositPaid = true
	} else {
		trade.TargetDepositPaid = true
	}

	var pending []models.Notification
	if trade.RequesterDepositPaid && trade.TargetDepositPaid {
		trade.Status = models.TradeDepositPaid
		pending = append(pending,
			models.Notification{
				RecipientId: trade.RequesterId,
				Kind:        models.NotificationTrade,
				Title:       "Deposits secured",
				Body:        "Both deposits are frozen, ship your item",
				RelatedId:   &trade.Id,
			},
			models.Notification{
				RecipientId: trade.TargetOwnerId,
				Kind:        models.NotificationTrade,
				Title:       "Deposits secured",
				Body:        "Both deposits are frozen, ship your item",
				RelatedId:   &trade.Id,
			})
	} else {
		pending = append(pending, models.Notification{
			RecipientId: trade.Counterparty(userId),
			Kind:        models.NotificationTrade,
			Title:       "Deposit paid",
			Body:        fmt.Sprintf("%s paid their deposit, yours is pending", user.Username),
			RelatedId:   &trade.Id,
		})
	}

	if err := updateTradeTx(ctx, tx, trade); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, n := range pending {
		s.notifier.Notify(ctx, n)
	}

	zap.L().Info("Trade deposit paid",
		zap.Int64("trade_id", trade.Id),
		zap.Int64("user_id", userId),
		zap.Int64("points_part", pointsPart),
		zap.String("cash_part", cashPart.String()),
		zap.String("status", string(trade.Status)))
	return s.buildResponse(ctx, trade)
}
