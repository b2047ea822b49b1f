package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aveekpatra/BestClient-sub000/internal/interfaces"
	"github.com/aveekpatra/BestClient-sub000/internal/models"
)

// Store is an in-memory implementation of interfaces.Store, used by
// tests and for running the server without a database. A single mutex
// guards all maps, which trivially gives every combined operation the
// required atomicity.
type Store struct {
	mu      sync.Mutex
	clients map[string]models.Client
	works   map[string]models.WorkTransaction
	history map[string][]models.BalanceHistoryEntry // clientID -> append-only, oldest first
}

func NewStore() *Store {
	return &Store{
		clients: make(map[string]models.Client),
		works:   make(map[string]models.WorkTransaction),
		history: make(map[string][]models.BalanceHistoryEntry),
	}
}

func (s *Store) CreateClient(ctx context.Context, client models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[client.ID] = client
	return nil
}

func (s *Store) GetClient(ctx context.Context, id string) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return models.Client{}, interfaces.ErrNotFound
	}
	return client, nil
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := make([]models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return interfaces.ErrNotFound
	}
	for _, w := range s.works {
		if w.ClientID == id {
			return interfaces.ErrHasWorks
		}
	}
	delete(s.clients, id)
	return nil
}

func (s *Store) GetWork(ctx context.Context, id string) (models.WorkTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	work, ok := s.works[id]
	if !ok {
		return models.WorkTransaction{}, interfaces.ErrNotFound
	}
	return work, nil
}

func (s *Store) ListWorksByClient(ctx context.Context, clientID string) ([]models.WorkTransaction, error) {
	return s.ListWorks(ctx, models.WorkFilter{ClientID: clientID})
}

func (s *Store) ListWorks(ctx context.Context, filter models.WorkFilter) ([]models.WorkTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var works []models.WorkTransaction
	for _, w := range s.works {
		if filter.Matches(w) {
			works = append(works, w)
		}
	}
	sort.Slice(works, func(i, j int) bool {
		if !works[i].TransactionDate.Equal(works[j].TransactionDate) {
			return works[i].TransactionDate.Before(works[j].TransactionDate)
		}
		return works[i].ID < works[j].ID
	})
	return works, nil
}

func (s *Store) CountWorksByClient(ctx context.Context, clientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, w := range s.works {
		if w.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateWork(ctx context.Context, work models.WorkTransaction, change interfaces.BalanceChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyChangeLocked(change); err != nil {
		return err
	}
	s.works[work.ID] = work
	return nil
}

func (s *Store) UpdateWork(ctx context.Context, work models.WorkTransaction, change interfaces.BalanceChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.works[work.ID]; !ok {
		return interfaces.ErrNotFound
	}
	if err := s.applyChangeLocked(change); err != nil {
		return err
	}
	s.works[work.ID] = work
	return nil
}

func (s *Store) DeleteWork(ctx context.Context, workID string, change interfaces.BalanceChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.works[workID]; !ok {
		return interfaces.ErrNotFound
	}
	if err := s.applyChangeLocked(change); err != nil {
		return err
	}
	delete(s.works, workID)
	return nil
}

func (s *Store) ApplyBalanceChange(ctx context.Context, change interfaces.BalanceChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyChangeLocked(change)
}

// applyChangeLocked patches the client balance and appends the history
// entry. Caller must hold s.mu.
func (s *Store) applyChangeLocked(change interfaces.BalanceChange) error {
	client, ok := s.clients[change.ClientID]
	if !ok {
		return interfaces.ErrNotFound
	}
	if client.Version != change.ExpectedVersion {
		return interfaces.ErrVersionConflict
	}
	client.Balance = change.NewBalance
	client.Version++
	client.UpdatedAt = change.Entry.CreatedAt
	s.clients[change.ClientID] = client
	s.history[change.ClientID] = append(s.history[change.ClientID], change.Entry)
	return nil
}

func (s *Store) HistoryByClient(ctx context.Context, clientID string, limit, offset int) ([]models.BalanceHistoryEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.history[clientID]
	total := int64(len(all))

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	// Newest first: walk the append-only log backwards.
	var page []models.BalanceHistoryEntry
	for i := len(all) - 1 - offset; i >= 0 && len(page) < limit; i-- {
		page = append(page, all[i])
	}
	return page, total, nil
}

// Compile-time check: Store implements interfaces.Store.
var _ interfaces.Store = (*Store)(nil)
