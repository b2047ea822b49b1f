package ledger

import (
	"context"
	"testing"

	"github.com/aveekpatra/BestClient-sub000/internal/models"
)

func TestAuditReconstruction(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	client := mustCreateClient(t, s)

	work, err := s.CreateWork(ctx, workInput(client.ID, 1000, 0))
	if err != nil {
		t.Fatalf("CreateWork: %v", err)
	}
	if _, err := s.CreateWork(ctx, workInput(client.ID, 500, 700)); err != nil {
		t.Fatalf("CreateWork: %v", err)
	}
	if _, err := s.UpdateWork(ctx, work.ID, workInput(client.ID, 1000, 1000)); err != nil {
		t.Fatalf("UpdateWork: %v", err)
	}
	if _, err := s.ManualAdjustment(ctx, client.ID, AdjustmentInput{Delta: 75, Reason: "late fee"}); err != nil {
		t.Fatalf("ManualAdjustment: %v", err)
	}

	page, err := s.GetHistory(ctx, client.ID, 100, 0)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}

	// Reverse to oldest-first and fold.
	entries := make([]models.BalanceHistoryEntry, len(page.Entries))
	for i, e := range page.Entries {
		entries[len(entries)-1-i] = e
	}

	var running int64
	for i, e := range entries {
		if e.PreviousBalance != running {
			t.Errorf("entry %d: previous balance = %d, want %d", i, e.PreviousBalance, running)
		}
		if e.NewBalance != e.PreviousBalance+e.BalanceChange {
			t.Errorf("entry %d: %d + %d != %d", i, e.PreviousBalance, e.BalanceChange, e.NewBalance)
		}
		running = e.NewBalance
		if !entries[i].CreatedAt.IsZero() && i > 0 && entries[i].CreatedAt.Before(entries[i-1].CreatedAt) {
			t.Errorf("entry %d created before entry %d", i, i-1)
		}
	}

	balance, err := s.GetClientBalance(ctx, client.ID)
	if err != nil {
		t.Fatalf("GetClientBalance: %v", err)
	}
	if running != balance {
		t.Errorf("folded balance = %d, stored balance = %d", running, balance)
	}
}

func TestGetHistoryPagination(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	client := mustCreateClient(t, s)

	var lastWorkID string
	for i := 0; i < 5; i++ {
		work, err := s.CreateWork(ctx, workInput(client.ID, int64(100*(i+1)), 0))
		if err != nil {
			t.Fatalf("CreateWork: %v", err)
		}
		lastWorkID = work.ID
	}

	page, err := s.GetHistory(ctx, client.ID, 2, 0)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(page.Entries) != 2 || !page.HasMore || page.Total != 5 {
		t.Fatalf("page = %d entries, hasMore=%v, total=%d; want 2/true/5", len(page.Entries), page.HasMore, page.Total)
	}
	// Newest first: the latest create (+500) leads.
	if page.Entries[0].BalanceChange != 500 || page.Entries[0].WorkID != lastWorkID {
		t.Errorf("first entry change = %d, workID = %s; want 500, %s", page.Entries[0].BalanceChange, page.Entries[0].WorkID, lastWorkID)
	}

	last, err := s.GetHistory(ctx, client.ID, 2, 4)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(last.Entries) != 1 || last.HasMore {
		t.Errorf("last page = %d entries, hasMore=%v; want 1/false", len(last.Entries), last.HasMore)
	}
	if last.Entries[0].BalanceChange != 100 {
		t.Errorf("oldest entry change = %d, want 100", last.Entries[0].BalanceChange)
	}
}

func TestGetHistoryUnknownClient(t *testing.T) {
	s, _, _ := newTestService(t)

	if _, err := s.GetHistory(context.Background(), "ghost", 10, 0); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetTimeline(context.Background(), "ghost", 10); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetTimeline(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	client := mustCreateClient(t, s)

	for i := 0; i < 3; i++ {
		if _, err := s.CreateWork(ctx, workInput(client.ID, 200, 0)); err != nil {
			t.Fatalf("CreateWork: %v", err)
		}
	}

	timeline, err := s.GetTimeline(ctx, client.ID, 2)
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	if timeline.CurrentBalance != 600 {
		t.Errorf("current balance = %d, want 600", timeline.CurrentBalance)
	}
	if timeline.TotalEntries != 3 {
		t.Errorf("total entries = %d, want 3", timeline.TotalEntries)
	}
	if len(timeline.Entries) != 2 {
		t.Errorf("entries = %d, want 2 (limited)", len(timeline.Entries))
	}
	if timeline.Entries[0].NewBalance != 600 {
		t.Errorf("newest entry running balance = %d, want 600", timeline.Entries[0].NewBalance)
	}
}
