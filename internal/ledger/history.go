package ledger

import (
	"context"

	"github.com/aveekpatra/BestClient-sub000/internal/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryPage is one newest-first page of a client's audit trail.
type HistoryPage struct {
	Entries []models.BalanceHistoryEntry `json:"entries"`
	HasMore bool                         `json:"has_more"`
	Total   int64                        `json:"total"`
}

// Timeline is the audit trail enriched with the current live balance,
// for "balance as of now plus the trail that produced it" displays.
type Timeline struct {
	ClientID       string                       `json:"client_id"`
	CurrentBalance int64                        `json:"current_balance"`
	TotalEntries   int64                        `json:"total_entries"`
	Entries        []models.BalanceHistoryEntry `json:"entries"`
}

// GetHistory returns the client's balance history newest-first.
func (s *Service) GetHistory(ctx context.Context, clientID string, limit, offset int) (HistoryPage, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return HistoryPage{}, err
	}
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	entries, total, err := s.store.HistoryByClient(ctx, clientID, limit, offset)
	if err != nil {
		return HistoryPage{}, err
	}
	if entries == nil {
		entries = []models.BalanceHistoryEntry{}
	}
	return HistoryPage{
		Entries: entries,
		HasMore: int64(offset+len(entries)) < total,
		Total:   total,
	}, nil
}

// GetTimeline returns the most recent entries together with the live
// balance and the total entry count.
func (s *Service) GetTimeline(ctx context.Context, clientID string, limit int) (Timeline, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return Timeline{}, err
	}

	entries, total, err := s.store.HistoryByClient(ctx, clientID, clampLimit(limit), 0)
	if err != nil {
		return Timeline{}, err
	}
	if entries == nil {
		entries = []models.BalanceHistoryEntry{}
	}
	return Timeline{
		ClientID:       clientID,
		CurrentBalance: client.Balance,
		TotalEntries:   total,
		Entries:        entries,
	}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
