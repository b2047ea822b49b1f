package ledger

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aveekpatra/BestClient-sub000/internal/interfaces"
	"github.com/aveekpatra/BestClient-sub000/internal/models"
)

// ValidationResult compares the denormalized balance against the ground
// truth recomputed from the client's work transactions.
type ValidationResult struct {
	ClientID          string `json:"client_id"`
	StoredBalance     int64  `json:"stored_balance"`
	CalculatedBalance int64  `json:"calculated_balance"`
	IsConsistent      bool   `json:"is_consistent"`
	Difference        int64  `json:"difference"` // calculated − stored
}

// Correction records one repair for operator review.
type Correction struct {
	ClientID   string `json:"client_id"`
	OldBalance int64  `json:"old_balance"`
	NewBalance int64  `json:"new_balance"`
	Difference int64  `json:"difference"`
}

// Validate recomputes the sum of contributions over the client's work
// transactions and reports any drift. Pure read, no side effects.
func (s *Service) Validate(ctx context.Context, clientID string) (ValidationResult, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return ValidationResult{}, err
	}

	calculated, err := s.calculatedBalance(ctx, clientID)
	if err != nil {
		return ValidationResult{}, err
	}

	return ValidationResult{
		ClientID:          clientID,
		StoredBalance:     client.Balance,
		CalculatedBalance: calculated,
		IsConsistent:      client.Balance == calculated,
		Difference:        calculated - client.Balance,
	}, nil
}

// Repair patches a drifted balance back to the recomputed ground truth
// and records a balance_correction audit entry. Consistent clients are
// left untouched, which makes back-to-back repairs idempotent.
func (s *Service) Repair(ctx context.Context, clientID string) (*Correction, error) {
	lock := s.clientLock(clientID)
	lock.Lock()
	defer lock.Unlock()

	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	calculated, err := s.calculatedBalance(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.Balance == calculated {
		return nil, nil
	}

	delta := calculated - client.Balance
	entry, err := s.applyWithRetry(ctx, clientID, delta, func(client models.Client, change *interfaces.BalanceChange) error {
		// Pin the target: even if a retry re-read a different stored
		// balance, the correction must land on the recomputed truth.
		change.NewBalance = calculated
		change.Entry.NewBalance = calculated
		change.Entry.BalanceChange = calculated - change.Entry.PreviousBalance
		change.Entry.ChangeType = models.ChangeBalanceCorrection
		change.Entry.Description = fmt.Sprintf("Balance corrected from %d to %d", change.Entry.PreviousBalance, change.Entry.NewBalance)
		return s.store.ApplyBalanceChange(ctx, *change)
	})
	if err != nil {
		return nil, err
	}

	s.publishBalanceChanged(entry)
	return &Correction{
		ClientID:   clientID,
		OldBalance: entry.PreviousBalance,
		NewBalance: entry.NewBalance,
		Difference: entry.BalanceChange,
	}, nil
}

// RepairAll runs Repair for every client. Each client is an independent
// unit: one failure is logged and the sweep continues. Returns the
// corrections that were applied.
func (s *Service) RepairAll(ctx context.Context) ([]Correction, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	corrections := make([]Correction, 0)
	for _, client := range clients {
		correction, err := s.Repair(ctx, client.ID)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"module":    "ledger",
				"client_id": client.ID,
			}).Error("repair failed: ", err)
			continue
		}
		if correction != nil {
			corrections = append(corrections, *correction)
		}
	}
	return corrections, nil
}

// calculatedBalance folds Σ(totalPrice − paidAmount) over the client's
// work transactions: the authoritative truth the cache must match.
func (s *Service) calculatedBalance(ctx context.Context, clientID string) (int64, error) {
	works, err := s.store.ListWorksByClient(ctx, clientID)
	if err != nil {
		return 0, err
	}

	var sum int64
	for _, w := range works {
		sum += w.Contribution()
	}
	return sum, nil
}
