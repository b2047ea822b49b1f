package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aveekpatra/BestClient-sub000/internal/interfaces"
	"github.com/aveekpatra/BestClient-sub000/internal/models"
)

func seedClient(t *testing.T, store *Store, id string) models.Client {
	t.Helper()
	client := models.Client{ID: id, Name: "Test Client", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.CreateClient(context.Background(), client); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	return client
}

func changeFor(client models.Client, delta int64, changeType models.ChangeType) interfaces.BalanceChange {
	return interfaces.BalanceChange{
		ClientID:        client.ID,
		ExpectedVersion: client.Version,
		NewBalance:      client.Balance + delta,
		Entry: models.BalanceHistoryEntry{
			ID:              "entry-" + client.ID,
			ClientID:        client.ID,
			ChangeType:      changeType,
			PreviousBalance: client.Balance,
			BalanceChange:   delta,
			NewBalance:      client.Balance + delta,
			CreatedAt:       time.Now().UTC(),
		},
	}
}

func TestApplyBalanceChangeCAS(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	client := seedClient(t, store, "c1")

	if err := store.ApplyBalanceChange(ctx, changeFor(client, 100, models.ChangeManualAdjustment)); err != nil {
		t.Fatalf("ApplyBalanceChange: %v", err)
	}

	// Same expected version again: the first write bumped it.
	err := store.ApplyBalanceChange(ctx, changeFor(client, 100, models.ChangeManualAdjustment))
	if !errors.Is(err, interfaces.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}

	got, err := store.GetClient(ctx, client.ID)
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	if got.Balance != 100 {
		t.Errorf("balance = %d, want 100 (stale write must not apply)", got.Balance)
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}

	// The rejected write must not have left an orphaned history entry.
	_, total, err := store.HistoryByClient(ctx, client.ID, 10, 0)
	if err != nil {
		t.Fatalf("HistoryByClient: %v", err)
	}
	if total != 1 {
		t.Errorf("history total = %d, want 1", total)
	}
}

func TestApplyBalanceChangeUnknownClient(t *testing.T) {
	store := NewStore()

	err := store.ApplyBalanceChange(context.Background(), changeFor(models.Client{ID: "ghost"}, 10, models.ChangeManualAdjustment))
	if !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateWorkIsAtomicWithBalance(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	client := seedClient(t, store, "c1")

	work := models.WorkTransaction{ID: "w1", ClientID: client.ID, TotalPrice: 500, WorkTypes: []string{"design"}}

	// Stale version: neither the work row nor the balance patch may land.
	stale := changeFor(client, 500, models.ChangeWorkCreated)
	stale.ExpectedVersion = 7
	if err := store.CreateWork(ctx, work, stale); !errors.Is(err, interfaces.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
	if _, err := store.GetWork(ctx, "w1"); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf("work row persisted despite rejected balance change")
	}

	if err := store.CreateWork(ctx, work, changeFor(client, 500, models.ChangeWorkCreated)); err != nil {
		t.Fatalf("CreateWork: %v", err)
	}
	got, err := store.GetClient(ctx, client.ID)
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	if got.Balance != 500 {
		t.Errorf("balance = %d, want 500", got.Balance)
	}
}

func TestDeleteClientGuard(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	client := seedClient(t, store, "c1")

	work := models.WorkTransaction{ID: "w1", ClientID: client.ID, TotalPrice: 100, WorkTypes: []string{"design"}}
	if err := store.CreateWork(ctx, work, changeFor(client, 100, models.ChangeWorkCreated)); err != nil {
		t.Fatalf("CreateWork: %v", err)
	}

	if err := store.DeleteClient(ctx, client.ID); !errors.Is(err, interfaces.ErrHasWorks) {
		t.Errorf("err = %v, want ErrHasWorks", err)
	}
	if err := store.DeleteClient(ctx, "ghost"); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHistoryByClientOutOfRangePaging(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	client := seedClient(t, store, "c1")

	if err := store.ApplyBalanceChange(ctx, changeFor(client, 100, models.ChangeManualAdjustment)); err != nil {
		t.Fatalf("ApplyBalanceChange: %v", err)
	}

	tests := []struct {
		name          string
		limit, offset int
		want          int
	}{
		{"negative offset", 10, -3, 1},
		{"negative limit", -1, 0, 0},
		{"offset past end", 10, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, total, err := store.HistoryByClient(ctx, client.ID, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("HistoryByClient: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("entries = %d, want %d", len(entries), tt.want)
			}
			if total != 1 {
				t.Errorf("total = %d, want 1", total)
			}
		})
	}
}

func TestListWorksFilterAndOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	client := seedClient(t, store, "c1")

	dates := []string{"2024-03-03", "2024-03-01", "2024-03-02"}
	current := client
	for i, d := range dates {
		date, _ := time.Parse("2006-01-02", d)
		work := models.WorkTransaction{
			ID:              d,
			ClientID:        client.ID,
			TotalPrice:      100,
			PaidAmount:      int64(i * 50), // 0, 50, 100: unpaid, partial, paid
			WorkTypes:       []string{"misc"},
			TransactionDate: date,
		}
		if err := store.CreateWork(ctx, work, changeFor(current, work.TotalPrice-work.PaidAmount, models.ChangeWorkCreated)); err != nil {
			t.Fatalf("CreateWork: %v", err)
		}
		current, _ = store.GetClient(ctx, client.ID)
	}

	works, err := store.ListWorksByClient(ctx, client.ID)
	if err != nil {
		t.Fatalf("ListWorksByClient: %v", err)
	}
	if len(works) != 3 {
		t.Fatalf("works = %d, want 3", len(works))
	}
	for i := 1; i < len(works); i++ {
		if works[i].TransactionDate.Before(works[i-1].TransactionDate) {
			t.Errorf("works not in date order")
		}
	}

	partial, err := store.ListWorks(ctx, models.WorkFilter{Status: models.PaymentStatusPartial})
	if err != nil {
		t.Fatalf("ListWorks: %v", err)
	}
	if len(partial) != 1 || partial[0].ID != "2024-03-01" {
		t.Errorf("partial filter returned %d works", len(partial))
	}

	from, _ := time.Parse("2006-01-02", "2024-03-02")
	recent, err := store.ListWorks(ctx, models.WorkFilter{From: &from})
	if err != nil {
		t.Fatalf("ListWorks: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("date filter returned %d works, want 2", len(recent))
	}
}
