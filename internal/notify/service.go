package notify

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
	queryInsertNotification = `
		INSERT INTO notifications (id, recipient_id, kind, title, body, related_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryListNotifications = `
		SELECT id, recipient_id, kind, title, body, related_id, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
)

// Service persists notifications and pushes them to live subscribers.
// Delivery is fire-and-forget: a failure is logged, never propagated to the
// operation that produced the event.
type Service struct {
	db       *sql.DB
	registry *Registry
}

var _ store.Notifier = (*Service)(nil)

func NewService(db *database.Service, registry *Registry) *Service {
	return &Service{db: db.DB(), registry: registry}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// Notify writes the notification row and publishes to live subscribers.
func (s *Service) Notify(ctx context.Context, n models.Notification) {
	if n.Id == "" {
		n.Id = uuid.New().String()
	}
	if n.Kind == "" {
		n.Kind = models.NotificationTrade
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, queryInsertNotification,
		n.Id, n.RecipientId, n.Kind, n.Title, n.Body, n.RelatedId, n.CreatedAt)
	if err != nil {
		zap.L().Warn("Failed to persist notification",
			zap.Int64("recipient_id", n.RecipientId),
			zap.String("title", n.Title),
			zap.Error(err))
		return
	}

	s.registry.Publish(n)
}

// List returns a recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, recipientId int64, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryListNotifications, recipientId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var relatedId sql.NullInt64
		err := rows.Scan(&n.Id, &n.RecipientId, &n.Kind, &n.Title, &n.Body, &relatedId, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if relatedId.Valid {
			n.RelatedId = &relatedId.Int64
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
