package models

import "time"

// Client represents a customer of the business. Balance is the
// denormalized sum of the client's work contributions, in signed minor
// currency units: positive means the client owes the business, negative
// means the business owes the client (credit), zero means settled.
//
// Balance must only ever be written by the ledger service together with
// a matching BalanceHistoryEntry. Version is bumped on every balance
// write and is used by the stores for optimistic locking.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Balance   int64     `json:"balance"`
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
