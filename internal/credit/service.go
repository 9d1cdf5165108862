package credit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"barter-trade-go/internal/database"
	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	queryInsertCreditRecord = `
		INSERT INTO credit_records (id, user_id, type, score_change, score_after, description, related_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetCreditRecords = `
		SELECT id, user_id, type, score_change, score_after, description, related_id, created_at
		FROM credit_records
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
)

var descriptions = map[models.CreditChangeType]string{
	models.CreditTradeComplete:   "Trade completed",
	models.CreditGoodReview:      "Positive review received",
	models.CreditOnTimeShip:      "Shipped on time",
	models.CreditTradeCancel:     "Trade cancelled",
	models.CreditLateShip:        "Late shipment",
	models.CreditBadReview:       "Negative review received",
	models.CreditReportConfirmed: "Report upheld",
	models.CreditDepositDefault:  "Deposit default",
}

// Service maintains reputation scores and translates them into trading
// privileges. Score mutations append an immutable credit record.
type Service struct {
	db     *sql.DB
	policy Policy
}

func NewService(db *database.Service, policy Policy) *Service {
	return &Service{db: db.DB(), policy: policy}
}

// Policy exposes the active rules for callers that only need the pure
// tier/ratio functions.
func (s *Service) Policy() Policy {
	return s.policy
}

// AddCreditTx applies the fixed delta for changeType inside a caller-owned
// transaction. The score floors at zero and has no ceiling.
func (s *Service) AddCreditTx(ctx context.Context, q store.DBTX, userId int64, changeType models.CreditChangeType, relatedId *int64) (*models.CreditRecord, error) {
	delta, ok := s.policy.Deltas[changeType]
	if !ok {
		return nil, fmt.Errorf("unknown credit change type %q: %w", changeType, store.ErrInvalidOperation)
	}

	user, err := database.GetUserTx(ctx, q, userId)
	if err != nil {
		return nil, err
	}

	newScore := user.CreditScore + delta
	if newScore < 0 {
		newScore = 0
	}
	if err := database.SetCreditScoreTx(ctx, q, userId, newScore); err != nil {
		return nil, err
	}

	record := &models.CreditRecord{
		Id:          uuid.New().String(),
		UserId:      userId,
		Type:        changeType,
		ScoreChange: delta,
		ScoreAfter:  newScore,
		Description: descriptions[changeType],
		RelatedId:   relatedId,
		CreatedAt:   time.Now(),
	}
	_, err = q.ExecContext(ctx, queryInsertCreditRecord,
		record.Id, record.UserId, record.Type, record.ScoreChange, record.ScoreAfter,
		record.Description, record.RelatedId, record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert credit record: %w", err)
	}

	zap.L().Info("Credit score changed",
		zap.Int64("user_id", userId),
		zap.String("type", string(changeType)),
		zap.Int("delta", delta),
		zap.Int("score_after", newScore))
	return record, nil
}

// AddCredit applies a credit change in its own transaction. Used by the
// review/report hooks that do not run inside a trade transition.
func (s *Service) AddCredit(ctx context.Context, userId int64, changeType models.CreditChangeType, relatedId *int64) (*models.CreditRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	record, err := s.AddCreditTx(ctx, tx, userId, changeType, relatedId)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return record, nil
}

// GetScore returns the current score plus the derived privileges.
func (s *Service) GetScore(ctx context.Context, userId int64) (*models.CreditResponse, error) {
	user, err := database.GetUserTx(ctx, s.db, userId)
	if err != nil {
		return nil, err
	}
	tier := s.policy.TierForScore(user.CreditScore)
	return &models.CreditResponse{
		Score:        user.CreditScore,
		Tier:         tier,
		DepositRatio: s.policy.DepositRatio(tier),
		RemoteTrade:  s.policy.CanRemoteTrade(user.CreditScore),
	}, nil
}

// GetRecords returns the reputation history, newest first.
func (s *Service) GetRecords(ctx context.Context, userId int64, limit, offset int) ([]models.CreditRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryGetCreditRecords, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit records: %w", err)
	}
	defer rows.Close()

	var records []models.CreditRecord
	for rows.Next() {
		var r models.CreditRecord
		var relatedId sql.NullInt64
		err := rows.Scan(&r.Id, &r.UserId, &r.Type, &r.ScoreChange, &r.ScoreAfter,
			&r.Description, &relatedId, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit record: %w", err)
		}
		if relatedId.Valid {
			r.RelatedId = &relatedId.Int64
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
