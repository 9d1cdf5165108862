package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barter-trade-go/internal/models"
	"barter-trade-go/internal/store"
)

// CreateItem inserts an AVAILABLE item owned by ownerId.
func (s *Service) CreateItem(ctx context.Context, title, description string, ownerId int64) (*models.Item, error) {
	res, err := s.db.ExecContext(ctx, queryInsertItem, title, description, ownerId, models.ItemAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetItem(ctx, id)
}

// GetItem returns an item by id, or ErrNotFound.
func (s *Service) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	return GetItemTx(ctx, s.db, id)
}

// ListItemsByOwner returns all items currently owned by a user, newest first.
func (s *Service) ListItemsByOwner(ctx context.Context, ownerId int64) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, queryListItemsByOwner, ownerId)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for owner %d: %w", ownerId, err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItemTx reads an item inside a caller-owned transaction so the status
// check and the later status write are serialized against concurrent trades.
func GetItemTx(ctx context.Context, q store.DBTX, id int64) (*models.Item, error) {
	row := q.QueryRowContext(ctx, queryGetItemById, id)
	item, err := scanItemRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return item, nil
}

// SetItemStatusTx moves an item between availability states.
func SetItemStatusTx(ctx context.Context, q store.DBTX, id int64, status models.ItemStatus) error {
	res, err := q.ExecContext(ctx, querySetItemStatus, status, id)
	if err != nil {
		return fmt.Errorf("failed to set item %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// TransferItemTx hands an item to a new owner and marks it TRADED, recording
// the previous owner, the item it was traded for and the trade timestamp.
func TransferItemTx(ctx context.Context, q store.DBTX, id, newOwnerId, previousOwnerId, tradedForItemId int64, tradedAt time.Time) error {
	res, err := q.ExecContext(ctx, queryTransferItem,
		newOwnerId, previousOwnerId, tradedForItemId, tradedAt, models.ItemTraded, id)
	if err != nil {
		return fmt.Errorf("failed to transfer item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (*models.Item, error) {
	var item models.Item
	var prevOwner, tradedFor sql.NullInt64
	var tradedAt sql.NullTime
	err := r.Scan(&item.Id, &item.Title, &item.Description, &item.OwnerId, &item.Status,
		&prevOwner, &tradedFor, &tradedAt,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if prevOwner.Valid {
		item.PreviousOwnerId = &prevOwner.Int64
	}
	if tradedFor.Valid {
		item.TradedForItemId = &tradedFor.Int64
	}
	if tradedAt.Valid {
		item.TradedAt = &tradedAt.Time
	}
	return &item, nil
}

func scanItemRow(row *sql.Row) (*models.Item, error) {
	return scanItem(row)
}
