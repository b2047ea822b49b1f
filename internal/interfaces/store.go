package interfaces

import (
	"context"
	"errors"

	"github.com/aveekpatra/BestClient-sub000/internal/models"
)

// Storage-level sentinel errors. The ledger service translates these
// into its caller-facing taxonomy.
var (
	// ErrNotFound is returned when a referenced client or work row is absent.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when a BalanceChange carries a stale
	// client version. The caller re-reads the client and retries the unit.
	ErrVersionConflict = errors.New("client version conflict")
	// ErrHasWorks is returned when deleting a client that still owns work rows.
	ErrHasWorks = errors.New("client still has work transactions")
)

// BalanceChange is the atomic unit of every balance write: the new
// balance, the version the writer read it at, and exactly one history
// entry describing the change. Stores must apply the balance patch and
// append the entry together or not at all, and must fail with
// ErrVersionConflict when ExpectedVersion no longer matches.
type BalanceChange struct {
	ClientID        string
	ExpectedVersion int64
	NewBalance      int64
	Entry           models.BalanceHistoryEntry
}

// Store is the persistence contract of the ledger. Implementations must
// be safe for concurrent use.
type Store interface {
	CreateClient(ctx context.Context, client models.Client) error
	GetClient(ctx context.Context, id string) (models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	// DeleteClient fails with ErrHasWorks while work rows reference the client.
	DeleteClient(ctx context.Context, id string) error

	GetWork(ctx context.Context, id string) (models.WorkTransaction, error)
	ListWorksByClient(ctx context.Context, clientID string) ([]models.WorkTransaction, error)
	ListWorks(ctx context.Context, filter models.WorkFilter) ([]models.WorkTransaction, error)
	CountWorksByClient(ctx context.Context, clientID string) (int64, error)

	// CreateWork persists the work row and applies the balance change in
	// one transaction. UpdateWork and DeleteWork do the same for edits
	// and removals.
	CreateWork(ctx context.Context, work models.WorkTransaction, change BalanceChange) error
	UpdateWork(ctx context.Context, work models.WorkTransaction, change BalanceChange) error
	DeleteWork(ctx context.Context, workID string, change BalanceChange) error

	// ApplyBalanceChange applies a balance change not tied to a work row
	// (manual adjustment, balance correction).
	ApplyBalanceChange(ctx context.Context, change BalanceChange) error

	// HistoryByClient returns a newest-first page of the client's audit
	// entries plus the total entry count.
	HistoryByClient(ctx context.Context, clientID string, limit, offset int) ([]models.BalanceHistoryEntry, int64, error)
}
