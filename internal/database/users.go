package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"
)

// CreateUser inserts a user with the starting credit score.
func (s *Service) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	res, err := s.db.ExecContext(ctx, queryInsertUser, username, email, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// GetUser returns a user by id, or ErrNotFound.
func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return GetUserTx(ctx, s.db, id)
}

// GetUserTx reads a user inside a caller-owned transaction.
func GetUserTx(ctx context.Context, q store.DBTX, id int64) (*models.User, error) {
	var u models.User
	err := q.QueryRowContext(ctx, queryGetUserById, id).
		Scan(&u.Id, &u.Username, &u.Email, &u.CreditScore, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

// SetCreditScoreTx writes the denormalized current score on the user row.
func SetCreditScoreTx(ctx context.Context, q store.DBTX, userId int64, score int) error {
	res, err := q.ExecContext(ctx, querySetCreditScore, score, userId)
	if err != nil {
		return fmt.Errorf("failed to update credit score for user %d: %w", userId, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userId, store.ErrNotFound)
	}
	return nil
}
