package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceChanged is published after every committed balance write.
// Amounts are in decimal major units for downstream consumers; the
// ledger itself works in integer minor units.
type BalanceChanged struct {
	EntryID         string          `json:"entry_id"`
	ClientID        string          `json:"client_id"`
	ChangeType      string          `json:"change_type"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	BalanceChange   decimal.Decimal `json:"balance_change"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	Description     string          `json:"description"`
	OccurredAt      time.Time       `json:"occurred_at"`
}
