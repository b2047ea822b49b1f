package models

import "time"

// ChangeType identifies what caused a balance change.
type ChangeType string

const (
	ChangeWorkCreated       ChangeType = "work_created"
	ChangeWorkUpdated       ChangeType = "work_updated"
	ChangeWorkDeleted       ChangeType = "work_deleted"
	ChangeManualAdjustment  ChangeType = "manual_adjustment"
	ChangeBalanceCorrection ChangeType = "balance_correction"
)

// BalanceHistoryEntry is one append-only audit record of a balance
// change. Invariant: NewBalance == PreviousBalance + BalanceChange.
// Entries are written in the same storage transaction as the balance
// patch they describe and are never mutated or deleted afterwards.
//
// WorkID and the Work* snapshot fields are set when the change was
// triggered by a work transaction; they capture the work's state at the
// time of the change, so the entry stays meaningful after the work row
// itself is deleted.
type BalanceHistoryEntry struct {
	ID              string     `json:"id"`
	ClientID        string     `json:"client_id"`
	ChangeType      ChangeType `json:"change_type"`
	PreviousBalance int64      `json:"previous_balance"`
	BalanceChange   int64      `json:"balance_change"`
	NewBalance      int64      `json:"new_balance"`
	Description     string     `json:"description"`
	WorkID          string     `json:"work_id,omitempty"`
	WorkTotalPrice  *int64     `json:"work_total_price,omitempty"`
	WorkPaidAmount  *int64     `json:"work_paid_amount,omitempty"`
	WorkDescription string     `json:"work_description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
