package models

import "time"

// PaymentStatus classifies how much of a work transaction has been paid.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Classify maps a (totalPrice, paidAmount) pair to its payment status.
// Overpayment counts as paid. Pure function, total over all non-negative
// pairs; negative paidAmount is rejected by input validation before this
// is ever reached.
func Classify(totalPrice, paidAmount int64) PaymentStatus {
	switch {
	case paidAmount <= 0:
		return PaymentStatusUnpaid
	case paidAmount >= totalPrice:
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}

// WorkTransaction is a unit of billable work (and any payment received
// against it) for a single client. Amounts are in minor currency units.
type WorkTransaction struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	TotalPrice      int64     `json:"total_price"`
	PaidAmount      int64     `json:"paid_amount"`
	WorkTypes       []string  `json:"work_types"`
	TransactionDate time.Time `json:"transaction_date"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Contribution is the transaction's signed effect on the client balance.
// Overpayment yields a negative contribution (credit).
func (w WorkTransaction) Contribution() int64 {
	return w.TotalPrice - w.PaidAmount
}

// PaymentStatus derives the transaction's payment state; it is never stored.
func (w WorkTransaction) PaymentStatus() PaymentStatus {
	return Classify(w.TotalPrice, w.PaidAmount)
}

// WorkFilter narrows ListWorks. Zero values mean "no constraint";
// From/To are inclusive calendar-date bounds on TransactionDate.
type WorkFilter struct {
	ClientID string
	Status   PaymentStatus
	From     *time.Time
	To       *time.Time
}

// Matches reports whether the work transaction satisfies the filter.
func (f WorkFilter) Matches(w WorkTransaction) bool {
	if f.ClientID != "" && w.ClientID != f.ClientID {
		return false
	}
	if f.Status != "" && w.PaymentStatus() != f.Status {
		return false
	}
	if f.From != nil && w.TransactionDate.Before(*f.From) {
		return false
	}
	if f.To != nil && w.TransactionDate.After(*f.To) {
		return false
	}
	return true
}
