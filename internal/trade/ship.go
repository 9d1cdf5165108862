package trade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barter-trade-go/internal/database"
	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"

	"go.uber.org/zap"
)

// ShipItem records one party's shipment on a funded remote trade. The first
// shipment moves DEPOSIT_PAID to SHIPPING; the second moves SHIPPING to
// DELIVERED. Each party ships exactly once and earns on-time credit for it.
func (s *Service) ShipItem(ctx context.Context, tradeId, actorId int64, trackingNo string) (*models.TradeResponse, error) {
	trackingNo = strings.TrimSpace(trackingNo)
	if trackingNo == "" {
		return nil, fmt.Errorf("tracking number is required: %w", store.ErrInvalidOperation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trade, err := getTradeTx(ctx, tx, tradeId)
	if err != nil {
		return nil, err
	}
	if !trade.IsParty(actorId) {
		return nil, fmt.Errorf("user %d is not a party to trade %d: %w", actorId, tradeId, store.ErrPermissionDenied)
	}
	if trade.TradeMode != models.ModeRemote {
		return nil, fmt.Errorf("in-person trades are not shipped: %w", store.ErrInvalidOperation)
	}
	if trade.Status != models.TradeDepositPaid && trade.Status != models.TradeShipping {
		return nil, fmt.Errorf("cannot ship from %s: %w", trade.Status, store.ErrInvalidStateTransition)
	}

	now := time.Now()
	if actorId == trade.RequesterId {
		if trade.RequesterShippedAt != nil {
			return nil, fmt.Errorf("requester already shipped on trade %d: %w", tradeId, store.ErrInvalidOperation)
		}
		trade.RequesterTrackingNo = trackingNo
		trade.RequesterShippedAt = &now
	} else {
		if trade.TargetShippedAt != nil {
			return nil, fmt.Errorf("target owner already shipped on trade %d: %w", tradeId, store.ErrInvalidOperation)
		}
		trade.TargetTrackingNo = trackingNo
		trade.TargetShippedAt = &now
	}

	if trade.RequesterShippedAt != nil && trade.TargetShippedAt != nil {
		trade.Status = models.TradeDelivered
	} else {
		trade.Status = models.TradeShipping
	}

	if _, err := s.credit.AddCreditTx(ctx, tx, actorId, models.CreditOnTimeShip, &trade.Id); err != nil {
		return nil, err
	}

	shipper, err := database.GetUserTx(ctx, tx, actorId)
	if err != nil {
		return nil, err
	}

	if err := updateTradeTx(ctx, tx, trade); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifier.Notify(ctx, models.Notification{
		RecipientId: trade.Counterparty(actorId),
		Kind:        models.NotificationTrade,
		Title:       "Item shipped",
		Body:        fmt.Sprintf("%s shipped their item, tracking number %s", shipper.Username, trackingNo),
		RelatedId:   &trade.Id,
	})

	zap.L().Info("Trade item shipped",
		zap.Int64("trade_id", trade.Id),
		zap.Int64("user_id", actorId),
		zap.String("tracking_no", trackingNo),
		zap.String("status", string(trade.Status)))
	return s.buildResponse(ctx, trade)
}
