package models

import "time"

// NotificationKind classifies a notification. Only trade events are produced
// by this system.
type NotificationKind string

const NotificationTrade NotificationKind = "TRADE"

// Notification is a fire-and-forget message to a trade counterparty, persisted
// for later retrieval and pushed to the recipient if they are registered.
type Notification struct {
	Id          string           `json:"id"`
	RecipientId int64            `json:"recipient_id"`
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	RelatedId   *int64           `json:"related_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
