package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

func newTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "debtledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"), opts...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTx(friendID, amount string, typ models.TransactionType, date time.Time) *models.Transaction {
	return &models.Transaction{
		ID:          uuid.New().String(),
		FriendID:    friendID,
		Amount:      dec(amount),
		Type:        typ,
		Status:      models.StatusApproved,
		Date:        date,
		Description: "test",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestFriends(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateFriend generates ID and access code", func(t *testing.T) {
		friend := &models.Friend{Name: "Alice"}
		if err := store.CreateFriend(ctx, friend); err != nil {
			t.Fatalf("CreateFriend failed: %v", err)
		}

		if friend.ID == "" {
			t.Error("Expected friend ID to be generated")
		}
		if len(friend.AccessCode) != 6 || friend.AccessCode < "100000" || friend.AccessCode > "999999" {
			t.Errorf("Access code %q is not a 6-digit code", friend.AccessCode)
		}
		if !friend.Balance.IsZero() {
			t.Errorf("Expected zero balance, got %s", friend.Balance)
		}
	})

	t.Run("GetFriendByAccessCode finds the holder", func(t *testing.T) {
		friend := &models.Friend{Name: "Bob"}
		if err := store.CreateFriend(ctx, friend); err != nil {
			t.Fatalf("CreateFriend failed: %v", err)
		}

		got, err := store.GetFriendByAccessCode(ctx, friend.AccessCode)
		if err != nil {
			t.Fatalf("GetFriendByAccessCode failed: %v", err)
		}
		if got.ID != friend.ID {
			t.Errorf("ID mismatch: got %s, want %s", got.ID, friend.ID)
		}
	})

	t.Run("access codes are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			friend := &models.Friend{Name: "Bulk"}
			if err := store.CreateFriend(ctx, friend); err != nil {
				t.Fatalf("CreateFriend failed: %v", err)
			}
			if seen[friend.AccessCode] {
				t.Fatalf("Duplicate access code %s", friend.AccessCode)
			}
			seen[friend.AccessCode] = true
		}
	})

	t.Run("GetFriend returns ErrFriendNotFound", func(t *testing.T) {
		_, err := store.GetFriend(ctx, "nonexistent-id")
		if !errors.Is(err, apperrors.ErrFriendNotFound) {
			t.Errorf("Expected ErrFriendNotFound, got %v", err)
		}
	})

	t.Run("ListFriends orders by name", func(t *testing.T) {
		friends, err := store.ListFriends(ctx)
		if err != nil {
			t.Fatalf("ListFriends failed: %v", err)
		}
		for i := 1; i < len(friends); i++ {
			if friends[i-1].Name > friends[i].Name {
				t.Errorf("Friends out of order: %s before %s", friends[i-1].Name, friends[i].Name)
			}
		}
	})
}

func TestRunInTx(t *testing.T) {
	store := newTestStore(t, WithRetryBudget(3))
	ctx := context.Background()

	friend := &models.Friend{Name: "Carol"}
	if err := store.CreateFriend(ctx, friend); err != nil {
		t.Fatalf("CreateFriend failed: %v", err)
	}

	t.Run("commits transaction and balance together", func(t *testing.T) {
		tx := newTx(friend.ID, "25.50", models.TransactionTypeExpense, time.Now())
		err := store.RunInTx(ctx, func(ltx storage.LedgerTx) error {
			f, err := ltx.GetFriend(ctx, friend.ID)
			if err != nil {
				return err
			}
			if err := ltx.InsertTransaction(ctx, tx); err != nil {
				return err
			}
			return ltx.UpdateFriendBalance(ctx, f, f.Balance.Add(tx.Amount))
		})
		if err != nil {
			t.Fatalf("RunInTx failed: %v", err)
		}

		got, err := store.GetFriend(ctx, friend.ID)
		if err != nil {
			t.Fatalf("GetFriend failed: %v", err)
		}
		if !got.Balance.Equal(dec("25.50")) {
			t.Errorf("Balance = %s, want 25.50", got.Balance)
		}
		if got.Version != 1 {
			t.Errorf("Version = %d, want 1", got.Version)
		}
		if _, err := store.GetTransaction(ctx, tx.ID); err != nil {
			t.Errorf("GetTransaction failed: %v", err)
		}
	})

	t.Run("rolls back everything on error", func(t *testing.T) {
		tx := newTx(friend.ID, "10", models.TransactionTypeExpense, time.Now())
		boom := errors.New("boom")
		err := store.RunInTx(ctx, func(ltx storage.LedgerTx) error {
			if err := ltx.InsertTransaction(ctx, tx); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected boom, got %v", err)
		}
		if _, err := store.GetTransaction(ctx, tx.ID); !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected rolled back transaction to be absent, got %v", err)
		}
	})

	t.Run("stale version exhausts retry budget", func(t *testing.T) {
		attempts := 0
		err := store.RunInTx(ctx, func(ltx storage.LedgerTx) error {
			attempts++
			f, err := ltx.GetFriend(ctx, friend.ID)
			if err != nil {
				return err
			}
			f.Version += 100
			return ltx.UpdateFriendBalance(ctx, f, dec("999"))
		})
		if !errors.Is(err, apperrors.ErrStoreUnavailable) {
			t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
		}
		if attempts != 3 {
			t.Errorf("Expected 3 attempts, got %d", attempts)
		}

		got, _ := store.GetFriend(ctx, friend.ID)
		if !got.Balance.Equal(dec("25.50")) {
			t.Errorf("Balance changed to %s after failed unit", got.Balance)
		}
	})

	t.Run("concurrent increments all land", func(t *testing.T) {
		other := &models.Friend{Name: "Dave"}
		if err := store.CreateFriend(ctx, other); err != nil {
			t.Fatalf("CreateFriend failed: %v", err)
		}

		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.RunInTx(ctx, func(ltx storage.LedgerTx) error {
					f, err := ltx.GetFriend(ctx, other.ID)
					if err != nil {
						return err
					}
					return ltx.UpdateFriendBalance(ctx, f, f.Balance.Add(dec("1.25")))
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("RunInTx failed: %v", err)
			}
		}

		got, _ := store.GetFriend(ctx, other.ID)
		if !got.Balance.Equal(dec("25")) {
			t.Errorf("Balance = %s, want 25", got.Balance)
		}
	})
}

func TestTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	friend := &models.Friend{Name: "Erin"}
	if err := store.CreateFriend(ctx, friend); err != nil {
		t.Fatalf("CreateFriend failed: %v", err)
	}
	other := &models.Friend{Name: "Frank"}
	if err := store.CreateFriend(ctx, other); err != nil {
		t.Fatalf("CreateFriend failed: %v", err)
	}

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	first := newTx(friend.ID, "10", models.TransactionTypeExpense, day)
	second := newTx(friend.ID, "20", models.TransactionTypeExpense, day)
	later := newTx(friend.ID, "5", models.TransactionTypePayment, day.AddDate(0, 0, 1))
	later.Status = models.StatusPending
	later.ProofImage = "proof://receipt.png"
	foreign := newTx(other.ID, "7", models.TransactionTypeExpense, day)

	err := store.RunInTx(ctx, func(ltx storage.LedgerTx) error {
		for _, tx := range []*models.Transaction{first, second, later, foreign} {
			if err := ltx.InsertTransaction(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx failed: %v", err)
	}

	tests := []struct {
		name    string
		filter  storage.TransactionFilter
		wantIDs []string
	}{
		{
			name:    "friend scoped newest first, ties newest insert first",
			filter:  storage.TransactionFilter{FriendID: friend.ID},
			wantIDs: []string{later.ID, second.ID, first.ID},
		},
		{
			name:    "status filter",
			filter:  storage.TransactionFilter{Status: models.StatusPending},
			wantIDs: []string{later.ID},
		},
		{
			name:    "type filter",
			filter:  storage.TransactionFilter{FriendID: friend.ID, Type: models.TransactionTypeExpense},
			wantIDs: []string{second.ID, first.ID},
		},
		{
			name:    "date range",
			filter:  storage.TransactionFilter{FriendID: friend.ID, From: ptr(day.AddDate(0, 0, 1))},
			wantIDs: []string{later.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := store.ListTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListTransactions failed: %v", err)
			}
			if len(txs) != len(tt.wantIDs) {
				t.Fatalf("Got %d transactions, want %d", len(txs), len(tt.wantIDs))
			}
			for i, tx := range txs {
				if tx.ID != tt.wantIDs[i] {
					t.Errorf("Position %d: got %s, want %s", i, tx.ID, tt.wantIDs[i])
				}
			}
		})
	}

	t.Run("round trip keeps every field", func(t *testing.T) {
		got, err := store.GetTransaction(ctx, later.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if !got.Amount.Equal(later.Amount) || got.Type != later.Type || got.Status != later.Status {
			t.Errorf("Got %+v, want %+v", got, later)
		}
		if !got.Date.Equal(later.Date) {
			t.Errorf("Date = %v, want %v", got.Date, later.Date)
		}
		if got.ProofImage != later.ProofImage {
			t.Errorf("ProofImage = %q, want %q", got.ProofImage, later.ProofImage)
		}
	})

	t.Run("UpdateTransactionStatus on missing id", func(t *testing.T) {
		err := store.RunInTx(ctx, func(ltx storage.LedgerTx) error {
			return ltx.UpdateTransactionStatus(ctx, "missing", models.StatusApproved)
		})
		if !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("DeleteFriend cascades to transactions", func(t *testing.T) {
		if err := store.DeleteFriend(ctx, friend.ID); err != nil {
			t.Fatalf("DeleteFriend failed: %v", err)
		}

		txs, err := store.ListTransactions(ctx, storage.TransactionFilter{FriendID: friend.ID})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(txs) != 0 {
			t.Errorf("Expected no transactions left, got %d", len(txs))
		}

		// The other friend is untouched
		txs, _ = store.ListTransactions(ctx, storage.TransactionFilter{FriendID: other.ID})
		if len(txs) != 1 {
			t.Errorf("Expected other friend's transaction to survive, got %d", len(txs))
		}

		if err := store.DeleteFriend(ctx, friend.ID); !errors.Is(err, apperrors.ErrFriendNotFound) {
			t.Errorf("Expected ErrFriendNotFound on second delete, got %v", err)
		}
	})
}

func TestBills(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateBill generates ID and title", func(t *testing.T) {
		bill := &models.Bill{
			Subtotal: dec("30"),
			Total:    dec("33"),
			Items: []models.BillItem{
				{Name: "Pizza", Price: dec("20"), Quantity: dec("1"), AssignedTo: []string{"a", "b"}},
				{Name: "Beer", Price: dec("10"), Quantity: dec("1"), AssignedTo: []string{"b"}},
			},
		}

		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}
		if bill.ID == "" {
			t.Error("Expected bill ID to be generated")
		}
		if bill.Title != "Pizza, Beer" {
			t.Errorf("Unexpected title: %s", bill.Title)
		}
		if bill.PayerID != models.AdminPayerID {
			t.Errorf("PayerID = %s, want %s", bill.PayerID, models.AdminPayerID)
		}
	})

	t.Run("GetBill retrieves complete bill", func(t *testing.T) {
		original := &models.Bill{
			Title:         "Test Dinner",
			Date:          time.Date(2025, 2, 14, 19, 0, 0, 0, time.UTC),
			Subtotal:      dec("50"),
			Tax:           dec("5"),
			ServiceCharge: dec("2.5"),
			Total:         dec("57.5"),
			Items: []models.BillItem{
				{Name: "Steak", Price: dec("30"), Quantity: dec("1"), AssignedTo: []string{"c"}},
				{Name: "Salad", Price: dec("10"), Quantity: dec("2"), AssignedTo: []string{"d", "c"}},
				{Name: "Bread", Price: dec("0"), Quantity: dec("1")},
			},
		}
		if err := store.CreateBill(ctx, original); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		retrieved, err := store.GetBill(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}

		if retrieved.Title != original.Title {
			t.Errorf("Title mismatch: got %s, want %s", retrieved.Title, original.Title)
		}
		if !retrieved.Date.Equal(original.Date) {
			t.Errorf("Date mismatch: got %v, want %v", retrieved.Date, original.Date)
		}
		if !retrieved.Total.Equal(original.Total) || !retrieved.ServiceCharge.Equal(original.ServiceCharge) {
			t.Errorf("Amounts mismatch: got %+v", retrieved)
		}
		if len(retrieved.Items) != 3 {
			t.Fatalf("Items count mismatch: got %d, want 3", len(retrieved.Items))
		}
		if retrieved.Items[1].Name != "Salad" || !retrieved.Items[1].Quantity.Equal(dec("2")) {
			t.Errorf("Item order or quantity lost: %+v", retrieved.Items[1])
		}
		if got := retrieved.Items[1].AssignedTo; len(got) != 2 || got[0] != "c" || got[1] != "d" {
			t.Errorf("Assignments = %v, want [c d]", got)
		}
		if len(retrieved.Items[2].AssignedTo) != 0 {
			t.Errorf("Unassigned item got assignments %v", retrieved.Items[2].AssignedTo)
		}
	})

	t.Run("GetBill returns ErrBillNotFound", func(t *testing.T) {
		_, err := store.GetBill(ctx, "nonexistent-id")
		if !errors.Is(err, apperrors.ErrBillNotFound) {
			t.Errorf("Expected ErrBillNotFound, got %v", err)
		}
	})

	t.Run("ListBills returns headers newest first", func(t *testing.T) {
		bills, err := store.ListBills(ctx)
		if err != nil {
			t.Fatalf("ListBills failed: %v", err)
		}
		if len(bills) != 2 {
			t.Fatalf("Got %d bills, want 2", len(bills))
		}
		if bills[0].Date.Before(bills[1].Date) {
			t.Errorf("Bills out of order: %v before %v", bills[0].Date, bills[1].Date)
		}
		if len(bills[0].Items) != 0 {
			t.Error("Expected headers without items")
		}
	})
}

func TestGenerateTitle(t *testing.T) {
	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		names        []string
		wantContains string
	}{
		{[]string{}, "Bill - Jan 2, 2025"},
		{[]string{"Pizza"}, "Pizza"},
		{[]string{"Pizza", "Beer"}, "Pizza, Beer"},
		{[]string{"Pizza", "Beer", "Salad"}, "Pizza, Beer, Salad"},
		{[]string{"Pizza", "Beer", "Salad", "Cake"}, "and 2 more"},
	}

	for _, tt := range tests {
		t.Run(tt.wantContains, func(t *testing.T) {
			got := generateTitle(date, tt.names)
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("generateTitle(%v) = %q, want to contain %q", tt.names, got, tt.wantContains)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
