package trade

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"barter-trade-go/internal/database"
	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"

	"go.uber.org/zap"
)

// Transition is the sole status-mutation entry point. The actor must be a
// party to the trade; any (from, to) pair outside the transition table fails
// with ErrInvalidStateTransition and no side effects.
func (s *Service) Transition(ctx context.Context, tradeId, actorId int64, desired models.TradeStatus) (*models.TradeResponse, error) {
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

	var pending []models.Notification
	switch desired {
	case models.TradeAccepted:
		err = s.acceptTx(ctx, tx, trade, actorId)
	case models.TradeRejected:
		err = s.rejectTx(ctx, tx, trade, actorId)
	case models.TradeCompleted:
		err = s.confirmCompleteTx(ctx, tx, trade, actorId)
	case models.TradeCancelled:
		pending, err = s.cancelTx(ctx, tx, trade, actorId)
	default:
		err = fmt.Errorf("cannot request status %s directly: %w", desired, store.ErrInvalidStateTransition)
	}
	if err != nil {
		return nil, err
	}

	if pending == nil {
		n, err := transitionNotification(ctx, tx, trade, actorId)
		if err != nil {
			return nil, err
		}
		if n != nil {
			pending = append(pending, *n)
		}
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

	zap.L().Info("Trade transition applied",
		zap.Int64("trade_id", trade.Id),
		zap.Int64("actor_id", actorId),
		zap.String("status", string(trade.Status)))
	return s.buildResponse(ctx, trade)
}

// transitionNotification builds the counterparty notification for a status
// change. Partial completion confirmations still notify so the other party
// knows they are being waited on.
func transitionNotification(ctx context.Context, tx *sql.Tx, trade *models.TradeRequest, actorId int64) (*models.Notification, error) {
	actor, err := database.GetUserTx(ctx, tx, actorId)
	if err != nil {
		return nil, err
	}

	var title, body string
	switch trade.Status {
	case models.TradeAccepted:
		title = "Trade accepted"
		body = fmt.Sprintf("%s accepted your trade request", actor.Username)
	case models.TradeRejected:
		title = "Trade rejected"
		body = fmt.Sprintf("%s rejected your trade request", actor.Username)
	case models.TradeCompleted:
		title = "Trade completed"
		body = "Both parties confirmed, the trade is complete"
	default:
		if trade.ConfirmState == models.ConfirmedRequester || trade.ConfirmState == models.ConfirmedTarget {
			title = "Completion confirmed"
			body = fmt.Sprintf("%s confirmed completion, your confirmation is pending", actor.Username)
		} else {
			return nil, nil
		}
	}

	return &models.Notification{
		RecipientId: trade.Counterparty(actorId),
		Kind:        models.NotificationTrade,
		Title:       title,
		Body:        body,
		RelatedId:   &trade.Id,
	}, nil
}

// acceptTx moves PENDING -> ACCEPTED and holds both items.
func (s *Service) acceptTx(ctx context.Context, tx *sql.Tx, trade *models.TradeRequest, actorId int64) error {
	if actorId != trade.TargetOwnerId {
		return fmt.Errorf("only the target owner may accept: %w", store.ErrPermissionDenied)
	}
	if trade.Status != models.TradePending {
		return fmt.Errorf("cannot accept from %s: %w", trade.Status, store.ErrInvalidStateTransition)
	}
	if trade.TradeMode == models.ModeRemote {
		owner, err := database.GetUserTx(ctx, tx, trade.TargetOwnerId)
		if err != nil {
			return err
		}
		if !s.credit.Policy().CanRemoteTrade(owner.CreditScore) {
			return fmt.Errorf("credit score %d too low to accept a remote trade: %w", owner.CreditScore, store.ErrPermissionDenied)
		}
	}

	// Either item may have been claimed by another trade since this request
	// was created. Re-check inside the transaction before holding them.
	targetItem, err := database.GetItemTx(ctx, tx, trade.TargetItemId)
	if err != nil {
		return err
	}
	if targetItem.Status != models.ItemAvailable {
		return fmt.Errorf("target item %d is no longer available: %w", targetItem.Id, store.ErrInvalidOperation)
	}
	offeredItem, err := database.GetItemTx(ctx, tx, trade.OfferedItemId)
	if err != nil {
		return err
	}
	if offeredItem.Status != models.ItemAvailable {
		return fmt.Errorf("offered item %d is no longer available: %w", offeredItem.Id, store.ErrInvalidOperation)
	}

	if err := database.SetItemStatusTx(ctx, tx, trade.TargetItemId, models.ItemPending); err != nil {
		return err
	}
	if err := database.SetItemStatusTx(ctx, tx, trade.OfferedItemId, models.ItemPending); err != nil {
		return err
	}
	trade.Status = models.TradeAccepted
	return nil
}

// rejectTx moves PENDING -> REJECTED. Items were never held.
func (s *Service) rejectTx(ctx context.Context, tx *sql.Tx, trade *models.TradeRequest, actorId int64) error {
	if actorId != trade.TargetOwnerId {
		return fmt.Errorf("only the target owner may reject: %w", store.ErrPermissionDenied)
	}
	if trade.Status != models.TradePending {
		return fmt.Errorf("cannot reject from %s: %w", trade.Status, store.ErrInvalidStateTransition)
	}
	trade.Status = models.TradeRejected
	return nil
}

// confirmCompleteTx records one party's completion confirmation. The trade
// only finalizes once both parties have confirmed; the second confirmation
// carries the ownership swap, deposit refunds and credit awards in the same
// transaction.
func (s *Service) confirmCompleteTx(ctx context.Context, tx *sql.Tx, trade *models.TradeRequest, actorId int64) error {
	if trade.TradeMode == models.ModeRemote {
		if trade.Status != models.TradeDelivered {
			return fmt.Errorf("remote trades complete from DELIVERED, not %s: %w", trade.Status, store.ErrInvalidStateTransition)
		}
	} else {
		if trade.Status != models.TradeAccepted {
			return fmt.Errorf("in-person trades complete from ACCEPTED, not %s: %w", trade.Status, store.ErrInvalidStateTransition)
		}
	}

	isRequester := actorId == trade.RequesterId
	switch trade.ConfirmState {
	case models.ConfirmedNone:
		if isRequester {
			trade.ConfirmState = models.ConfirmedRequester
		} else {
			trade.ConfirmState = models.ConfirmedTarget
		}
	case models.ConfirmedRequester:
		if isRequester {
			return fmt.Errorf("requester has already confirmed trade %d: %w", trade.Id, store.ErrAlreadyConfirmed)
		}
		trade.ConfirmState = models.ConfirmedBoth
	case models.ConfirmedTarget:
		if !isRequester {
			return fmt.Errorf("target owner has already confirmed trade %d: %w", trade.Id, store.ErrAlreadyConfirmed)
		}
		trade.ConfirmState = models.ConfirmedBoth
	case models.ConfirmedBoth:
		return fmt.Errorf("trade %d is already fully confirmed: %w", trade.Id, store.ErrAlreadyConfirmed)
	default:
		return fmt.Errorf("unknown confirm state %q on trade %d", trade.ConfirmState, trade.Id)
	}

	if trade.ConfirmState != models.ConfirmedBoth {
		return nil
	}
	return s.finalizeTx(ctx, tx, trade)
}

// finalizeTx swaps ownership, marks both items TRADED, refunds frozen
// deposits on remote trades and awards completion credit to both parties.
func (s *Service) finalizeTx(ctx context.Context, tx *sql.Tx, trade *models.TradeRequest) error {
	now := time.Now()

	if err := database.TransferItemTx(ctx, tx,
		trade.TargetItemId, trade.RequesterId, trade.TargetOwnerId, trade.OfferedItemId, now); err != nil {
		return err
	}
	if err := database.TransferItemTx(ctx, tx,
		trade.OfferedItemId, trade.TargetOwnerId, trade.RequesterId, trade.TargetItemId, now); err != nil {
		return err
	}

	if trade.TradeMode == models.ModeRemote {
		if err := s.refundFrozenDepositsTx(ctx, tx, trade, now); err != nil {
			return err
		}
	}

	if _, err := s.credit.AddCreditTx(ctx, tx, trade.RequesterId, models.CreditTradeComplete, &trade.Id); err != nil {
		return err
	}
	if _, err := s.credit.AddCreditTx(ctx, tx, trade.TargetOwnerId, models.CreditTradeComplete, &trade.Id); err != nil {
		return err
	}

	trade.Status = models.TradeCompleted
	zap.L().Info("Trade completed",
		zap.Int64("trade_id", trade.Id),
		zap.Int64("requester_id", trade.RequesterId),
		zap.Int64("target_owner_id", trade.TargetOwnerId))
	return nil
}

func (s *Service) refundFrozenDepositsTx(ctx context.Context, tx *sql.Tx, trade *models.TradeRequest, now time.Time) error {
	deposits, err := listDepositsTx(ctx, tx, trade.Id)
	if err != nil {
		return err
	}
	for _, deposit := range deposits {
		if deposit.Status != models.DepositFrozen {
			continue
		}
		if err := s.ledger.UnfreezeTx(ctx, tx, deposit.UserId, deposit.PointsAmount, deposit.CashAmount, trade.Id); err != nil {
			return err
		}
		if err := setDepositStatusTx(ctx, tx, deposit.Id, models.DepositRefunded, now); err != nil {
			return err
		}
	}
	return nil
}

// cancelTx applies the cancellation policy. Legal only from PENDING,
// ACCEPTED or DEPOSIT_PAID. Cancelling a fully funded remote trade forfeits
// the canceller's deposit to the counterparty and costs them credit.
func (s *Service) cancelTx(ctx context.Context, tx *sql.Tx, trade *models.TradeRequest, actorId int64) ([]models.Notification, error) {
	source := trade.Status
	if source != models.TradePending && source != models.TradeAccepted && source != models.TradeDepositPaid {
		return nil, fmt.Errorf("cannot cancel from %s: %w", source, store.ErrInvalidStateTransition)
	}

	if source != models.TradePending {
		if err := database.SetItemStatusTx(ctx, tx, trade.TargetItemId, models.ItemAvailable); err != nil {
			return nil, err
		}
		if err := database.SetItemStatusTx(ctx, tx, trade.OfferedItemId, models.ItemAvailable); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if trade.TradeMode == models.ModeRemote && source == models.TradeDepositPaid {
		// The canceller defaulted on a funded agreement: forfeit their
		// deposit to the counterparty, refund the counterparty's own.
		violatorId := actorId
		receiverId := trade.Counterparty(actorId)

		violatorDeposit, err := getDepositTx(ctx, tx, trade.Id, violatorId)
		if err != nil {
			return nil, err
		}
		if violatorDeposit != nil && violatorDeposit.Status == models.DepositFrozen {
			if err := s.ledger.ForfeitTx(ctx, tx, violatorId, receiverId,
				violatorDeposit.PointsAmount, violatorDeposit.CashAmount, trade.Id); err != nil {
				return nil, err
			}
			if err := setDepositStatusTx(ctx, tx, violatorDeposit.Id, models.DepositForfeited, now); err != nil {
				return nil, err
			}
		}

		receiverDeposit, err := getDepositTx(ctx, tx, trade.Id, receiverId)
		if err != nil {
			return nil, err
		}
		if receiverDeposit != nil && receiverDeposit.Status == models.DepositFrozen {
			if err := s.ledger.UnfreezeTx(ctx, tx, receiverId,
				receiverDeposit.PointsAmount, receiverDeposit.CashAmount, trade.Id); err != nil {
				return nil, err
			}
			if err := setDepositStatusTx(ctx, tx, receiverDeposit.Id, models.DepositRefunded, now); err != nil {
				return nil, err
			}
		}

		if _, err := s.credit.AddCreditTx(ctx, tx, violatorId, models.CreditTradeCancel, &trade.Id); err != nil {
			return nil, err
		}
	} else if trade.TradeMode == models.ModeRemote && source == models.TradeAccepted {
		// Not fully funded yet; nobody defaulted. Refund whatever was frozen.
		if err := s.refundFrozenDepositsTx(ctx, tx, trade, now); err != nil {
			return nil, err
		}
	}

	trade.Status = models.TradeCancelled

	canceller, err := database.GetUserTx(ctx, tx, actorId)
	if err != nil {
		return nil, err
	}
	notification := models.Notification{
		RecipientId: trade.Counterparty(actorId),
		Kind:        models.NotificationTrade,
		Title:       "Trade cancelled",
		Body:        fmt.Sprintf("%s cancelled the trade request", canceller.Username),
		RelatedId:   &trade.Id,
	}
	return []models.Notification{notification}, nil
}
