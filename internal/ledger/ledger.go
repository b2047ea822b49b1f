package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aveekpatra/BestClient-sub000/internal/interfaces"
	"github.com/aveekpatra/BestClient-sub000/internal/models"
	"github.com/aveekpatra/BestClient-sub000/internal/models/events"
)

// maxCASRetries bounds the optimistic-locking retry loop. In-process
// writers to the same client are already serialized by the per-client
// mutex, so conflicts only come from other processes.
const maxCASRetries = 5

// Service is the balance ledger. It owns every write to Client.balance:
// each balance-affecting operation reads the current balance, computes
// the new one, and hands the store a BalanceChange that patches the
// balance and appends exactly one audit entry atomically.
type Service struct {
	store     interfaces.Store
	publisher interfaces.EventPublisher
	logger    *logrus.Logger
	validate  *validator.Validate

	muMap map[string]*sync.Mutex // one lock per client id
	mapMu sync.Mutex             // protects muMap itself
}

func NewService(store interfaces.Store, publisher interfaces.EventPublisher, logger *logrus.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		validate:  validator.New(),
		muMap:     make(map[string]*sync.Mutex),
	}
}

// clientLock returns the mutex serializing in-process writers for one client.
func (s *Service) clientLock(clientID string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	if _, exists := s.muMap[clientID]; !exists {
		s.muMap[clientID] = &sync.Mutex{}
	}
	return s.muMap[clientID]
}

// ClientInput creates a client. Balance always starts at zero.
type ClientInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

func (s *Service) CreateClient(ctx context.Context, input ClientInput) (models.Client, error) {
	if err := s.validate.Struct(input); err != nil {
		return models.Client{}, newValidationError(err)
	}

	now := time.Now().UTC()
	client := models.Client{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateClient(ctx, client); err != nil {
		return models.Client{}, err
	}
	return client, nil
}

func (s *Service) GetClient(ctx context.Context, clientID string) (models.Client, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return models.Client{}, ErrNotFound
	}
	return client, err
}

func (s *Service) ListClients(ctx context.Context) ([]models.Client, error) {
	return s.store.ListClients(ctx)
}

// DeleteClient removes a client that no longer owns work transactions.
func (s *Service) DeleteClient(ctx context.Context, clientID string) error {
	err := s.store.DeleteClient(ctx, clientID)
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, interfaces.ErrHasWorks):
		return ErrConflict
	}
	return err
}

// GetClientBalance returns the denormalized balance in minor units.
func (s *Service) GetClientBalance(ctx context.Context, clientID string) (int64, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return 0, err
	}
	return client.Balance, nil
}

// WorkInput is the payload for creating or updating a work transaction.
// Amounts are minor currency units; the date is a YYYY-MM-DD calendar day.
type WorkInput struct {
	ClientID        string   `json:"client_id" validate:"required"`
	TotalPrice      int64    `json:"total_price" validate:"gte=0"`
	PaidAmount      int64    `json:"paid_amount" validate:"gte=0"`
	WorkTypes       []string `json:"work_types" validate:"required,min=1,dive,required"`
	TransactionDate string   `json:"transaction_date" validate:"required,datetime=2006-01-02"`
	Description     string   `json:"description" validate:"required"`
}

func (in WorkInput) parseDate() (time.Time, error) {
	return time.Parse("2006-01-02", in.TransactionDate)
}

// CreateWork persists a new work transaction and applies its
// contribution to the owning client's balance, with a work_created
// audit entry, all in one atomic unit.
func (s *Service) CreateWork(ctx context.Context, input WorkInput) (models.WorkTransaction, error) {
	if err := s.validate.Struct(input); err != nil {
		return models.WorkTransaction{}, newValidationError(err)
	}
	date, err := input.parseDate()
	if err != nil {
		return models.WorkTransaction{}, &ValidationError{Fields: map[string]string{
			"TransactionDate": "must be a valid date in YYYY-MM-DD format",
		}}
	}

	lock := s.clientLock(input.ClientID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	work := models.WorkTransaction{
		ID:              uuid.New().String(),
		ClientID:        input.ClientID,
		TotalPrice:      input.TotalPrice,
		PaidAmount:      input.PaidAmount,
		WorkTypes:       input.WorkTypes,
		TransactionDate: date,
		Description:     input.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	delta := work.Contribution()

	entry, err := s.applyWithRetry(ctx, input.ClientID, delta, func(client models.Client, change *interfaces.BalanceChange) error {
		change.Entry.ChangeType = models.ChangeWorkCreated
		change.Entry.Description = fmt.Sprintf("Work created: %s", work.Description)
		attachWorkSnapshot(&change.Entry, work)
		return s.store.CreateWork(ctx, work, *change)
	})
	if err != nil {
		return models.WorkTransaction{}, err
	}

	s.publishBalanceChanged(entry)
	return work, nil
}

// UpdateWork re-validates and persists an edited work transaction; the
// balance moves by the difference between the new and old contributions.
func (s *Service) UpdateWork(ctx context.Context, workID string, input WorkInput) (models.WorkTransaction, error) {
	if err := s.validate.Struct(input); err != nil {
		return models.WorkTransaction{}, newValidationError(err)
	}
	date, err := input.parseDate()
	if err != nil {
		return models.WorkTransaction{}, &ValidationError{Fields: map[string]string{
			"TransactionDate": "must be a valid date in YYYY-MM-DD format",
		}}
	}

	// First read only resolves the owning client so the right lock can
	// be taken; the contribution delta must come from a re-read below.
	prior, err := s.store.GetWork(ctx, workID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return models.WorkTransaction{}, ErrNotFound
	}
	if err != nil {
		return models.WorkTransaction{}, err
	}
	if input.ClientID != prior.ClientID {
		return models.WorkTransaction{}, &ValidationError{Fields: map[string]string{
			"ClientID": "cannot move a work transaction to another client",
		}}
	}

	lock := s.clientLock(prior.ClientID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a writer that got the lock first may have
	// changed or deleted the row, and a delta computed from the stale
	// contribution would drift the balance.
	prior, err = s.store.GetWork(ctx, workID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return models.WorkTransaction{}, ErrNotFound
	}
	if err != nil {
		return models.WorkTransaction{}, err
	}

	work := prior
	work.TotalPrice = input.TotalPrice
	work.PaidAmount = input.PaidAmount
	work.WorkTypes = input.WorkTypes
	work.TransactionDate = date
	work.Description = input.Description
	work.UpdatedAt = time.Now().UTC()

	delta := work.Contribution() - prior.Contribution()

	entry, err := s.applyWithRetry(ctx, prior.ClientID, delta, func(client models.Client, change *interfaces.BalanceChange) error {
		change.Entry.ChangeType = models.ChangeWorkUpdated
		change.Entry.Description = fmt.Sprintf("Work updated: %s", work.Description)
		attachWorkSnapshot(&change.Entry, work)
		return s.store.UpdateWork(ctx, work, *change)
	})
	if err != nil {
		return models.WorkTransaction{}, err
	}

	s.publishBalanceChanged(entry)
	return work, nil
}

// DeleteWork removes a work transaction and reverses its contribution.
func (s *Service) DeleteWork(ctx context.Context, workID string) error {
	// First read only resolves the owning client; see UpdateWork.
	prior, err := s.store.GetWork(ctx, workID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	lock := s.clientLock(prior.ClientID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock so the reversal matches the row's current
	// contribution, not one edited away while waiting for the lock.
	prior, err = s.store.GetWork(ctx, workID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	delta := -prior.Contribution()

	entry, err := s.applyWithRetry(ctx, prior.ClientID, delta, func(client models.Client, change *interfaces.BalanceChange) error {
		change.Entry.ChangeType = models.ChangeWorkDeleted
		change.Entry.Description = fmt.Sprintf("Work deleted: %s", prior.Description)
		attachWorkSnapshot(&change.Entry, prior)
		return s.store.DeleteWork(ctx, workID, *change)
	})
	if err != nil {
		return err
	}

	s.publishBalanceChanged(entry)
	return nil
}

// AdjustmentInput is a balance change not tied to any work transaction.
type AdjustmentInput struct {
	Delta  int64  `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// ManualAdjustment moves the balance by an arbitrary signed delta with a
// manual_adjustment audit entry.
func (s *Service) ManualAdjustment(ctx context.Context, clientID string, input AdjustmentInput) (models.BalanceHistoryEntry, error) {
	if err := s.validate.Struct(input); err != nil {
		return models.BalanceHistoryEntry{}, newValidationError(err)
	}

	lock := s.clientLock(clientID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := s.applyWithRetry(ctx, clientID, input.Delta, func(client models.Client, change *interfaces.BalanceChange) error {
		change.Entry.ChangeType = models.ChangeManualAdjustment
		change.Entry.Description = input.Reason
		return s.store.ApplyBalanceChange(ctx, *change)
	})
	if err != nil {
		return models.BalanceHistoryEntry{}, err
	}

	s.publishBalanceChanged(entry)
	return entry, nil
}

func (s *Service) ListWorksByClient(ctx context.Context, clientID string) ([]models.WorkTransaction, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.store.ListWorksByClient(ctx, clientID)
}

func (s *Service) ListWorks(ctx context.Context, filter models.WorkFilter) ([]models.WorkTransaction, error) {
	return s.store.ListWorks(ctx, filter)
}

// applyWithRetry runs one atomic balance unit: read the client, build
// the BalanceChange for the given delta, let apply commit it, and retry
// the whole unit when the store reports a stale version. The committed
// history entry is returned.
//
// Caller must hold the client lock.
func (s *Service) applyWithRetry(ctx context.Context, clientID string, delta int64,
	apply func(client models.Client, change *interfaces.BalanceChange) error) (models.BalanceHistoryEntry, error) {

	var lastErr error
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		client, err := s.store.GetClient(ctx, clientID)
		if errors.Is(err, interfaces.ErrNotFound) {
			return models.BalanceHistoryEntry{}, ErrNotFound
		}
		if err != nil {
			return models.BalanceHistoryEntry{}, err
		}

		entry := models.BalanceHistoryEntry{
			ID:              uuid.New().String(),
			ClientID:        clientID,
			PreviousBalance: client.Balance,
			BalanceChange:   delta,
			NewBalance:      client.Balance + delta,
			CreatedAt:       time.Now().UTC(),
		}
		change := interfaces.BalanceChange{
			ClientID:        clientID,
			ExpectedVersion: client.Version,
			NewBalance:      entry.NewBalance,
			Entry:           entry,
		}

		err = apply(client, &change)
		if errors.Is(err, interfaces.ErrVersionConflict) {
			lastErr = err
			continue // another writer got there first; re-read and retry
		}
		if errors.Is(err, interfaces.ErrNotFound) {
			return models.BalanceHistoryEntry{}, ErrNotFound
		}
		if err != nil {
			return models.BalanceHistoryEntry{}, err
		}
		return change.Entry, nil
	}
	return models.BalanceHistoryEntry{}, fmt.Errorf("balance write for client %s kept conflicting: %w", clientID, lastErr)
}

// attachWorkSnapshot freezes the triggering work's fields on the entry
// so the audit trail stays meaningful after the work row is deleted.
func attachWorkSnapshot(entry *models.BalanceHistoryEntry, work models.WorkTransaction) {
	totalPrice := work.TotalPrice
	paidAmount := work.PaidAmount
	entry.WorkID = work.ID
	entry.WorkTotalPrice = &totalPrice
	entry.WorkPaidAmount = &paidAmount
	entry.WorkDescription = work.Description
}

// publishBalanceChanged emits the integration event for a committed
// entry. Best effort: failures are logged and never fail the write.
func (s *Service) publishBalanceChanged(entry models.BalanceHistoryEntry) {
	if s.publisher == nil {
		return
	}
	event := events.BalanceChanged{
		EntryID:         entry.ID,
		ClientID:        entry.ClientID,
		ChangeType:      string(entry.ChangeType),
		PreviousBalance: models.MajorUnits(entry.PreviousBalance),
		BalanceChange:   models.MajorUnits(entry.BalanceChange),
		NewBalance:      models.MajorUnits(entry.NewBalance),
		Description:     entry.Description,
		OccurredAt:      entry.CreatedAt,
	}
	if err := s.publisher.Publish(entry.ClientID, event); err != nil {
		s.logger.WithFields(logrus.Fields{
			"module":    "ledger",
			"client_id": entry.ClientID,
			"entry_id":  entry.ID,
		}).Warn("failed to publish balance change: ", err)
	}
}
