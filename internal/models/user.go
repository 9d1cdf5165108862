package models

import "time"

// User is the credit-relevant slice of a marketplace account. The score is the
// denormalized current value; full history lives in credit_records.
type User struct {
	Id          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	CreditScore int       `json:"credit_score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserBrief is the projection embedded in trade responses.
type UserBrief struct {
	Id          int64  `json:"id"`
	Username    string `json:"username"`
	CreditScore int    `json:"credit_score"`
}
