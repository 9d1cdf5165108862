package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barter-trade-go/internal/database"
	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the only component allowed to mutate balances. Every mutation is
// an atomic read-modify-write paired with an immutable wallet transaction row.
type Service struct {
	db *sql.DB
}

func NewService(db *database.Service) *Service {
	return &Service{db: db.DB()}
}

// GetWalletTx reads a user's wallet inside a caller-owned transaction,
// creating an empty one on first touch.
func GetWalletTx(ctx context.Context, q store.DBTX, userId int64) (*models.Wallet, error) {
	wallet, err := scanWallet(q.QueryRowContext(ctx, queryGetWallet, userId))
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := q.ExecContext(ctx, queryInsertWallet, userId); err != nil {
			return nil, fmt.Errorf("failed to create wallet for user %d: %w", userId, err)
		}
		return scanWallet(q.QueryRowContext(ctx, queryGetWallet, userId))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %d: %w", userId, err)
	}
	return wallet, nil
}

// GetWallet returns the wallet projection including sign-in state.
func (s *Service) GetWallet(ctx context.Context, userId int64) (*models.WalletResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	wallet, err := GetWalletTx(ctx, tx, userId)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	today := time.Now().Format(dayLayout)
	signedToday := wallet.LastSignInDay == today
	return &models.WalletResponse{
		Points:           wallet.Points,
		Balance:          wallet.Balance,
		FrozenPoints:     wallet.FrozenPoints,
		FrozenBalance:    wallet.FrozenBalance,
		AvailablePoints:  wallet.AvailablePoints(),
		AvailableBalance: wallet.AvailableBalance(),
		SignedToday:      signedToday,
		SignInStreak:     wallet.SignInStreak,
		NextSignInPoints: nextSignInPoints(wallet, time.Now()),
	}, nil
}

// GetTransactions returns the wallet audit trail, newest first.
func (s *Service) GetTransactions(ctx context.Context, userId int64, limit, offset int) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.WalletTransaction
	for rows.Next() {
		var t models.WalletTransaction
		var balanceChange, balanceAfter string
		var relatedId sql.NullInt64
		err := rows.Scan(&t.Id, &t.UserId, &t.Type, &t.PointsChange, &balanceChange,
			&t.PointsAfter, &balanceAfter, &t.Description, &relatedId, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		if t.BalanceChange, err = decimal.NewFromString(balanceChange); err != nil {
			return nil, fmt.Errorf("failed to parse balance change %q: %w", balanceChange, err)
		}
		if t.BalanceAfter, err = decimal.NewFromString(balanceAfter); err != nil {
			return nil, fmt.Errorf("failed to parse balance after %q: %w", balanceAfter, err)
		}
		if relatedId.Valid {
			t.RelatedId = &relatedId.Int64
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// FreezeTx escrows points and cash from a user's available balance inside a
// caller-owned transaction. Totals are unchanged; only availability moves.
func (s *Service) FreezeTx(ctx context.Context, q store.DBTX, userId, points int64, cash decimal.Decimal, relatedId int64) error {
	wallet, err := GetWalletTx(ctx, q, userId)
	if err != nil {
		return err
	}

	if points > wallet.AvailablePoints() {
		return fmt.Errorf("need %d points, %d available: %w", points, wallet.AvailablePoints(), store.ErrInsufficientFunds)
	}
	if cash.GreaterThan(wallet.AvailableBalance()) {
		return fmt.Errorf("need %s cash, %s available: %w", cash, wallet.AvailableBalance(), store.ErrInsufficientFunds)
	}

	wallet.FrozenPoints += points
	wallet.FrozenBalance = wallet.FrozenBalance.Add(cash)
	if err := updateWallet(ctx, q, wallet); err != nil {
		return err
	}

	return recordTransaction(ctx, q, wallet, txnParams{
		Type:          models.TxnDepositFreeze,
		PointsChange:  -points,
		BalanceChange: cash.Neg(),
		PointsAfter:   wallet.AvailablePoints(),
		BalanceAfter:  wallet.AvailableBalance(),
		Description:   "Trade deposit frozen",
		RelatedId:     &relatedId,
	})
}

// UnfreezeTx releases previously escrowed funds back to availability, floored
// at zero. Totals are unchanged.
func (s *Service) UnfreezeTx(ctx context.Context, q store.DBTX, userId, points int64, cash decimal.Decimal, relatedId int64) error {
	wallet, err := GetWalletTx(ctx, q, userId)
	if err != nil {
		return err
	}

	wallet.FrozenPoints = max64(0, wallet.FrozenPoints-points)
	wallet.FrozenBalance = maxDecimal(decimal.Zero, wallet.FrozenBalance.Sub(cash))
	if err := updateWallet(ctx, q, wallet); err != nil {
		return err
	}

	return recordTransaction(ctx, q, wallet, txnParams{
		Type:          models.TxnDepositUnfreeze,
		PointsChange:  points,
		BalanceChange: cash,
		PointsAfter:   wallet.AvailablePoints(),
		BalanceAfter:  wallet.AvailableBalance(),
		Description:   "Trade deposit refunded",
		RelatedId:     &relatedId,
	})
}

// ForfeitTx transfers an escrowed deposit from the violator to the receiver.
// Both wallets and both ledger rows are written in the caller's transaction;
// the transfer is all-or-nothing.
func (s *Service) ForfeitTx(ctx context.Context, q store.DBTX, violatorId, receiverId, points int64, cash decimal.Decimal, relatedId int64) error {
	violator, err := GetWalletTx(ctx, q, violatorId)
	if err != nil {
		return err
	}
	receiver, err := GetWalletTx(ctx, q, receiverId)
	if err != nil {
		return err
	}

	violator.Points = max64(0, violator.Points-points)
	violator.FrozenPoints = max64(0, violator.FrozenPoints-points)
	violator.Balance = maxDecimal(decimal.Zero, violator.Balance.Sub(cash))
	violator.FrozenBalance = maxDecimal(decimal.Zero, violator.FrozenBalance.Sub(cash))
	if err := updateWallet(ctx, q, violator); err != nil {
		return err
	}

	receiver.Points += points
	receiver.Balance = receiver.Balance.Add(cash)
	if err := updateWallet(ctx, q, receiver); err != nil {
		return err
	}

	err = recordTransaction(ctx, q, violator, txnParams{
		Type:          models.TxnDepositForfeit,
		PointsChange:  -points,
		BalanceChange: cash.Neg(),
		PointsAfter:   violator.AvailablePoints(),
		BalanceAfter:  violator.AvailableBalance(),
		Description:   "Deposit forfeited for default",
		RelatedId:     &relatedId,
	})
	if err != nil {
		return err
	}

	err = recordTransaction(ctx, q, receiver, txnParams{
		Type:          models.TxnDepositReceive,
		PointsChange:  points,
		BalanceChange: cash,
		PointsAfter:   receiver.Points,
		BalanceAfter:  receiver.Balance,
		Description:   "Compensation received from defaulting party",
		RelatedId:     &relatedId,
	})
	if err != nil {
		return err
	}

	zap.L().Info("Deposit forfeited",
		zap.Int64("violator_id", violatorId),
		zap.Int64("receiver_id", receiverId),
		zap.Int64("points", points),
		zap.String("cash", cash.String()),
		zap.Int64("trade_id", relatedId))
	return nil
}

// Freeze runs FreezeTx in its own transaction.
func (s *Service) Freeze(ctx context.Context, userId, points int64, cash decimal.Decimal, relatedId int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.FreezeTx(ctx, tx, userId, points, cash, relatedId)
	})
}

// Unfreeze runs UnfreezeTx in its own transaction.
func (s *Service) Unfreeze(ctx context.Context, userId, points int64, cash decimal.Decimal, relatedId int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.UnfreezeTx(ctx, tx, userId, points, cash, relatedId)
	})
}

// Forfeit runs ForfeitTx in its own transaction.
func (s *Service) Forfeit(ctx context.Context, violatorId, receiverId, points int64, cash decimal.Decimal, relatedId int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.ForfeitTx(ctx, tx, violatorId, receiverId, points, cash, relatedId)
	})
}

func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txnParams struct {
	Type          models.TransactionType
	PointsChange  int64
	BalanceChange decimal.Decimal
	PointsAfter   int64
	BalanceAfter  decimal.Decimal
	Description   string
	RelatedId     *int64
}

func recordTransaction(ctx context.Context, q store.DBTX, wallet *models.Wallet, p txnParams) error {
	_, err := q.ExecContext(ctx, queryInsertTransaction,
		uuid.New().String(), wallet.UserId, p.Type, p.PointsChange, p.BalanceChange.String(),
		p.PointsAfter, p.BalanceAfter.String(), p.Description, p.RelatedId, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert wallet transaction: %w", err)
	}
	return nil
}

// updateWallet writes the wallet back with optimistic locking; a lost race
// surfaces as ErrConcurrentModification rather than a silent overwrite.
func updateWallet(ctx context.Context, q store.DBTX, wallet *models.Wallet) error {
	res, err := q.ExecContext(ctx, queryUpdateWallet,
		wallet.Points, wallet.Balance.String(), wallet.FrozenPoints, wallet.FrozenBalance.String(),
		wallet.LastSignInDay, wallet.SignInStreak,
		wallet.UserId, wallet.Version)
	if err != nil {
		return fmt.Errorf("failed to update wallet for user %d: %w", wallet.UserId, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("wallet update for user %d: %w", wallet.UserId, store.ErrConcurrentModification)
	}
	wallet.Version++
	return nil
}

func scanWallet(row *sql.Row) (*models.Wallet, error) {
	var w models.Wallet
	var balance, frozenBalance string
	err := row.Scan(&w.UserId, &w.Points, &balance, &w.FrozenPoints, &frozenBalance,
		&w.LastSignInDay, &w.SignInStreak, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balance, err)
	}
	if w.FrozenBalance, err = decimal.NewFromString(frozenBalance); err != nil {
		return nil, fmt.Errorf("failed to parse frozen balance %q: %w", frozenBalance, err)
	}
	return &w, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
