package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dayLayout = "2006-01-02"

// Points credited to the inviter when a referred user signs up.
const referralRewardPoints = 50

// SignIn credits the daily reward. The reward equals the current streak
// length in points: 1 on the first day, 2 on the second consecutive day, and
// so on, uncapped. Any gap resets the streak to 1; a second sign-in on the
// same day fails with ErrAlreadySignedIn.
func (s *Service) SignIn(ctx context.Context, userId int64) (*models.WalletTransaction, error) {
	return s.signInAt(ctx, userId, time.Now())
}

func (s *Service) signInAt(ctx context.Context, userId int64, now time.Time) (*models.WalletTransaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	wallet, err := GetWalletTx(ctx, tx, userId)
	if err != nil {
		return nil, err
	}

	today := now.Format(dayLayout)
	if wallet.LastSignInDay == today {
		return nil, fmt.Errorf("user %d: %w", userId, store.ErrAlreadySignedIn)
	}

	yesterday := now.AddDate(0, 0, -1).Format(dayLayout)
	if wallet.LastSignInDay == yesterday {
		wallet.SignInStreak++
	} else {
		wallet.SignInStreak = 1
	}
	wallet.LastSignInDay = today

	reward := wallet.SignInStreak
	wallet.Points += reward
	if err := updateWallet(ctx, tx, wallet); err != nil {
		return nil, err
	}

	txn := &models.WalletTransaction{
		UserId:        userId,
		Type:          models.TxnSignIn,
		PointsChange:  reward,
		BalanceChange: decimal.Zero,
		PointsAfter:   wallet.Points,
		BalanceAfter:  wallet.Balance,
		Description:   fmt.Sprintf("Daily sign-in reward, streak %d", wallet.SignInStreak),
		CreatedAt:     now,
	}
	if err := recordTransaction(ctx, tx, wallet, txnParams{
		Type:          txn.Type,
		PointsChange:  txn.PointsChange,
		BalanceChange: txn.BalanceChange,
		PointsAfter:   txn.PointsAfter,
		BalanceAfter:  txn.BalanceAfter,
		Description:   txn.Description,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Sign-in reward credited",
		zap.Int64("user_id", userId),
		zap.Int64("streak", wallet.SignInStreak),
		zap.Int64("points", reward))
	return txn, nil
}

// nextSignInPoints is what the user would earn by signing in right now.
func nextSignInPoints(wallet *models.Wallet, now time.Time) int64 {
	if wallet.LastSignInDay == now.Format(dayLayout) {
		return wallet.SignInStreak + 1
	}
	if wallet.LastSignInDay == now.AddDate(0, 0, -1).Format(dayLayout) {
		return wallet.SignInStreak + 1
	}
	return 1
}

// Recharge tops up the cash balance. Stub for a real payment gateway.
func (s *Service) Recharge(ctx context.Context, userId int64, amount decimal.Decimal) (*models.WalletTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("recharge amount must be positive: %w", store.ErrInvalidOperation)
	}

	var txn *models.WalletTransaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		wallet, err := GetWalletTx(ctx, tx, userId)
		if err != nil {
			return err
		}
		wallet.Balance = wallet.Balance.Add(amount)
		if err := updateWallet(ctx, tx, wallet); err != nil {
			return err
		}
		txn = &models.WalletTransaction{
			UserId:        userId,
			Type:          models.TxnRecharge,
			BalanceChange: amount,
			PointsAfter:   wallet.Points,
			BalanceAfter:  wallet.Balance,
			Description:   fmt.Sprintf("Recharged %s", amount),
			CreatedAt:     time.Now(),
		}
		return recordTransaction(ctx, tx, wallet, txnParams{
			Type:          txn.Type,
			BalanceChange: txn.BalanceChange,
			PointsChange:  0,
			PointsAfter:   txn.PointsAfter,
			BalanceAfter:  txn.BalanceAfter,
			Description:   txn.Description,
		})
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ReferralReward credits the fixed invite bonus to the inviter. The referred
// user's id is kept on the ledger row for the audit trail.
func (s *Service) ReferralReward(ctx context.Context, inviterId, invitedId int64) (*models.WalletTransaction, error) {
	var txn *models.WalletTransaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		wallet, err := GetWalletTx(ctx, tx, inviterId)
		if err != nil {
			return err
		}
		wallet.Points += referralRewardPoints
		if err := updateWallet(ctx, tx, wallet); err != nil {
			return err
		}
		txn = &models.WalletTransaction{
			UserId:        inviterId,
			Type:          models.TxnInviteReward,
			PointsChange:  referralRewardPoints,
			BalanceChange: decimal.Zero,
			PointsAfter:   wallet.Points,
			BalanceAfter:  wallet.Balance,
			Description:   "Referral reward",
			RelatedId:     &invitedId,
			CreatedAt:     time.Now(),
		}
		return recordTransaction(ctx, tx, wallet, txnParams{
			Type:          txn.Type,
			PointsChange:  txn.PointsChange,
			BalanceChange: txn.BalanceChange,
			PointsAfter:   txn.PointsAfter,
			BalanceAfter:  txn.BalanceAfter,
			Description:   txn.Description,
			RelatedId:     txn.RelatedId,
		})
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}
