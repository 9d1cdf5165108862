package trade

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barter-trade-go/internal/credit"
	"barter-trade-go/internal/database"
	"barter-trade-go/internal/ledger"
	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service owns every legal transition of a trade request and the side effects
// each transition triggers on items, wallets and credit. All mutations run
// inside a single database transaction; validation failures roll back without
// persisting anything.
type Service struct {
	db       *sql.DB
	ledger   *ledger.Service
	credit   *credit.Service
	notifier store.Notifier
}

func NewService(db *database.Service, ledgerSvc *ledger.Service, creditSvc *credit.Service, notifier store.Notifier) *Service {
	return &Service{db: db.DB(), ledger: ledgerSvc, credit: creditSvc, notifier: notifier}
}

// Create validates and persists a new PENDING trade request. Items are not
// held until the target owner accepts.
func (s *Service) Create(ctx context.Context, requesterId int64, req models.CreateTradeRequest) (*models.TradeResponse, error) {
	mode := req.TradeMode
	if mode == "" {
		mode = models.ModeInPerson
	}
	if mode != models.ModeInPerson && mode != models.ModeRemote {
		return nil, fmt.Errorf("unknown trade mode %q: %w", req.TradeMode, store.ErrInvalidOperation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	requester, err := database.GetUserTx(ctx, tx, requesterId)
	if err != nil {
		return nil, err
	}
	targetItem, err := database.GetItemTx(ctx, tx, req.TargetItemId)
	if err != nil {
		return nil, err
	}
	offeredItem, err := database.GetItemTx(ctx, tx, req.OfferedItemId)
	if err != nil {
		return nil, err
	}

	if targetItem.OwnerId == requesterId {
		return nil, fmt.Errorf("cannot trade for your own item: %w", store.ErrInvalidOperation)
	}
	if offeredItem.OwnerId != requesterId {
		return nil, fmt.Errorf("offered item %d is not owned by requester: %w", offeredItem.Id, store.ErrInvalidOperation)
	}
	if targetItem.Status != models.ItemAvailable {
		return nil, fmt.Errorf("target item %d is not available: %w", targetItem.Id, store.ErrInvalidOperation)
	}
	if offeredItem.Status != models.ItemAvailable {
		return nil, fmt.Errorf("offered item %d is not available: %w", offeredItem.Id, store.ErrInvalidOperation)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, queryHasOpenRequest, requesterId, req.TargetItemId).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check open requests: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("an open request for item %d already exists: %w", req.TargetItemId, store.ErrInvalidOperation)
	}

	estimatedValue := decimal.Zero
	if mode == models.ModeRemote {
		if !s.credit.Policy().CanRemoteTrade(requester.CreditScore) {
			return nil, fmt.Errorf("credit score %d too low for remote trade: %w", requester.CreditScore, store.ErrPermissionDenied)
		}
		if req.EstimatedValue.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("remote trade requires a positive estimated value: %w", store.ErrPermissionDenied)
		}
		estimatedValue = req.EstimatedValue
	}

	res, err := tx.ExecContext(ctx, queryInsertTrade,
		requesterId, req.TargetItemId, req.OfferedItemId, targetItem.OwnerId,
		req.Message, models.TradePending, mode, estimatedValue.String())
	if err != nil {
		return nil, fmt.Errorf("failed to insert trade request: %w", err)
	}
	tradeId, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	trade, err := getTradeTx(ctx, tx, tradeId)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifier.Notify(ctx, models.Notification{
		RecipientId: trade.TargetOwnerId,
		Kind:        models.NotificationTrade,
		Title:       "New trade request",
		Body:        fmt.Sprintf("%s wants to trade for your %s", requester.Username, targetItem.Title),
		RelatedId:   &trade.Id,
	})

	zap.L().Info("Trade request created",
		zap.Int64("trade_id", trade.Id),
		zap.Int64("requester_id", requesterId),
		zap.Int64("target_item_id", req.TargetItemId),
		zap.String("mode", string(mode)))
	return s.buildResponse(ctx, trade)
}

// Get returns a trade projection; only parties may view it.
func (s *Service) Get(ctx context.Context, tradeId, userId int64) (*models.TradeResponse, error) {
	trade, err := getTradeTx(ctx, s.db, tradeId)
	if err != nil {
		return nil, err
	}
	if !trade.IsParty(userId) {
		return nil, fmt.Errorf("user %d is not a party to trade %d: %w", userId, tradeId, store.ErrPermissionDenied)
	}
	return s.buildResponse(ctx, trade)
}

// ListSent returns trades initiated by the user, newest first.
func (s *Service) ListSent(ctx context.Context, userId int64, limit, offset int) ([]models.TradeResponse, error) {
	return s.list(ctx, queryListSent, userId, limit, offset)
}

// ListReceived returns trades targeting the user's items, newest first.
func (s *Service) ListReceived(ctx context.Context, userId int64, limit, offset int) ([]models.TradeResponse, error) {
	return s.list(ctx, queryListReceived, userId, limit, offset)
}

func (s *Service) list(ctx context.Context, query string, userId int64, limit, offset int) ([]models.TradeResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, query, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var responses []models.TradeResponse
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		resp, err := s.buildResponse(ctx, trade)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, rows.Err()
}

func (s *Service) buildResponse(ctx context.Context, trade *models.TradeRequest) (*models.TradeResponse, error) {
	targetItem, err := database.GetItemTx(ctx, s.db, trade.TargetItemId)
	if err != nil {
		return nil, err
	}
	offeredItem, err := database.GetItemTx(ctx, s.db, trade.OfferedItemId)
	if err != nil {
		return nil, err
	}
	requester, err := database.GetUserTx(ctx, s.db, trade.RequesterId)
	if err != nil {
		return nil, err
	}

	return &models.TradeResponse{
		Id: trade.Id,
		TargetItem: models.ItemBrief{
			Id: targetItem.Id, Title: targetItem.Title, OwnerId: targetItem.OwnerId, Status: targetItem.Status,
		},
		OfferedItem: models.ItemBrief{
			Id: offeredItem.Id, Title: offeredItem.Title, OwnerId: offeredItem.OwnerId, Status: offeredItem.Status,
		},
		Requester: models.UserBrief{
			Id: requester.Id, Username: requester.Username, CreditScore: requester.CreditScore,
		},
		Message:              trade.Message,
		Status:               trade.Status,
		TradeMode:            trade.TradeMode,
		EstimatedValue:       trade.EstimatedValue,
		RequesterConfirmed:   trade.ConfirmState.RequesterConfirmed(),
		TargetConfirmed:      trade.ConfirmState.TargetConfirmed(),
		RequesterDepositPaid: trade.RequesterDepositPaid,
		TargetDepositPaid:    trade.TargetDepositPaid,
		RequesterTrackingNo:  trade.RequesterTrackingNo,
		TargetTrackingNo:     trade.TargetTrackingNo,
		RequesterShippedAt:   trade.RequesterShippedAt,
		TargetShippedAt:      trade.TargetShippedAt,
		CreatedAt:            trade.CreatedAt,
		UpdatedAt:            trade.UpdatedAt,
	}, nil
}

func getTradeTx(ctx context.Context, q store.DBTX, tradeId int64) (*models.TradeRequest, error) {
	trade, err := scanTrade(q.QueryRowContext(ctx, queryGetTrade, tradeId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trade %d: %w", tradeId, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %d: %w", tradeId, err)
	}
	return trade, nil
}

// updateTradeTx writes the mutable trade fields back with optimistic locking.
// A concurrent transition on the same trade loses the race and surfaces as
// ErrConcurrentModification instead of double-applying side effects.
func updateTradeTx(ctx context.Context, q store.DBTX, trade *models.TradeRequest) error {
	res, err := q.ExecContext(ctx, queryUpdateTrade,
		trade.Status, trade.ConfirmState,
		trade.RequesterTrackingNo, trade.TargetTrackingNo,
		trade.RequesterShippedAt, trade.TargetShippedAt,
		trade.RequesterDepositPaid, trade.TargetDepositPaid,
		trade.Id, trade.Version)
	if err != nil {
		return fmt.Errorf("failed to update trade %d: %w", trade.Id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("trade %d update: %w", trade.Id, store.ErrConcurrentModification)
	}
	trade.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(r rowScanner) (*models.TradeRequest, error) {
	var t models.TradeRequest
	var estimatedValue string
	var requesterShippedAt, targetShippedAt sql.NullTime
	err := r.Scan(&t.Id, &t.RequesterId, &t.TargetItemId, &t.OfferedItemId, &t.TargetOwnerId,
		&t.Message, &t.Status, &t.TradeMode, &estimatedValue, &t.ConfirmState,
		&t.RequesterTrackingNo, &t.TargetTrackingNo, &requesterShippedAt, &targetShippedAt,
		&t.RequesterDepositPaid, &t.TargetDepositPaid, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.EstimatedValue, err = decimal.NewFromString(estimatedValue); err != nil {
		return nil, fmt.Errorf("failed to parse estimated value %q: %w", estimatedValue, err)
	}
	if requesterShippedAt.Valid {
		t.RequesterShippedAt = &requesterShippedAt.Time
	}
	if targetShippedAt.Valid {
		t.TargetShippedAt = &targetShippedAt.Time
	}
	return &t, nil
}

func getDepositTx(ctx context.Context, q store.DBTX, tradeId, userId int64) (*models.TradeDeposit, error) {
	deposit, err := scanDeposit(q.QueryRowContext(ctx, queryGetDepositForUser, tradeId, userId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit for trade %d user %d: %w", tradeId, userId, err)
	}
	return deposit, nil
}

func listDepositsTx(ctx context.Context, q store.DBTX, tradeId int64) ([]models.TradeDeposit, error) {
	rows, err := q.QueryContext(ctx, queryListDeposits, tradeId)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits for trade %d: %w", tradeId, err)
	}
	defer rows.Close()

	var deposits []models.TradeDeposit
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, *deposit)
	}
	return deposits, rows.Err()
}

func setDepositStatusTx(ctx context.Context, q store.DBTX, depositId string, status models.DepositStatus, releasedAt time.Time) error {
	if _, err := q.ExecContext(ctx, querySetDepositStatus, status, releasedAt, depositId); err != nil {
		return fmt.Errorf("failed to set deposit %s status: %w", depositId, err)
	}
	return nil
}

func scanDeposit(r rowScanner) (*models.TradeDeposit, error) {
	var d models.TradeDeposit
	var cashAmount string
	var releasedAt sql.NullTime
	err := r.Scan(&d.Id, &d.TradeId, &d.UserId, &d.PointsAmount, &cashAmount, &d.Status, &d.CreatedAt, &releasedAt)
	if err != nil {
		return nil, err
	}
	if d.CashAmount, err = decimal.NewFromString(cashAmount); err != nil {
		return nil, fmt.Errorf("failed to parse deposit cash amount %q: %w", cashAmount, err)
	}
	if releasedAt.Valid {
		d.ReleasedAt = &releasedAt.Time
	}
	return &d, nil
}
