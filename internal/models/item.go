package models

import "time"

// ItemStatus is the availability state of an item.
type ItemStatus string

const (
	ItemAvailable ItemStatus = "AVAILABLE"
	ItemPending   ItemStatus = "PENDING"
	ItemTraded    ItemStatus = "TRADED"
	ItemRemoved   ItemStatus = "REMOVED"
)

// Item is a tradable good. PreviousOwnerId, TradedForItemId and TradedAt are
// filled in when a trade completes and the item changes hands.
type Item struct {
	Id              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	OwnerId         int64      `json:"owner_id"`
	Status          ItemStatus `json:"status"`
	PreviousOwnerId *int64     `json:"previous_owner_id,omitempty"`
	TradedForItemId *int64     `json:"traded_for_item_id,omitempty"`
	TradedAt        *time.Time `json:"traded_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ItemBrief is the projection embedded in trade responses.
type ItemBrief struct {
	Id      int64      `json:"id"`
	Title   string     `json:"title"`
	OwnerId int64      `json:"owner_id"`
	Status  ItemStatus `json:"status"`
}
