package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

func billItem(name, price, qty string, assignedTo ...string) models.BillItem {
	return models.BillItem{Name: name, Price: dec(price), Quantity: dec(qty), AssignedTo: assignedTo}
}

func TestFinalizeSplit_ChargesEachAssignee(t *testing.T) {
	f := newFixture(t, WithSplitConcurrency(2))
	ctx := context.Background()
	x := f.addFriend(t, "X")
	y := f.addFriend(t, "Y")
	date := time.Date(2025, 4, 20, 19, 0, 0, 0, time.UTC)

	res, err := f.ledger.FinalizeSplit(ctx, SplitRequest{
		Title: "Warung",
		Items: []models.BillItem{
			billItem("Nasi Goreng", "30000", "1", x.ID),
			billItem("Es Teh", "30000", "1", x.ID),
			billItem("Steak", "100000", "1", y.ID),
		},
		Tax:           dec("16000"),
		ServiceCharge: dec("16000"),
		Date:          date,
	})
	require.NoError(t, err)
	require.Len(t, res.Assignments, 2)
	assert.Empty(t, res.FailedFriendIDs())

	// multiplier 192000 / 160000 = 1.2
	assertDecimal(t, "72000", f.balance(t, x.ID))
	assertDecimal(t, "120000", f.balance(t, y.ID))

	txs, err := f.ledger.ListTransactions(ctx, storage.TransactionFilter{FriendID: x.ID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Split Bill: Warung", txs[0].Description)
	assert.Equal(t, models.StatusApproved, txs[0].Status)
	assert.True(t, txs[0].Date.Equal(date))

	require.NoError(t, res.BillErr)
	require.NotNil(t, res.Bill)
	bill, err := f.ledger.GetBill(ctx, res.Bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "Warung", bill.Title)
	assert.Equal(t, models.AdminPayerID, bill.PayerID)
	assertDecimal(t, "160000", bill.Subtotal)
	assertDecimal(t, "192000", bill.Total)
	assert.Len(t, bill.Items, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SplitAssignments.WithLabelValues("ok")))
	f.assertInvariant(t, x.ID)
	f.assertInvariant(t, y.ID)
}

func TestFinalizeSplit_ScenarioE(t *testing.T) {
	f := newFixture(t)
	y := f.addFriend(t, "Y")

	res, err := f.ledger.FinalizeSplit(context.Background(), SplitRequest{
		Items:         []models.BillItem{billItem("Set", "100000", "1", y.ID)},
		Subtotal:      dec("100000"),
		Tax:           dec("10000"),
		ServiceCharge: dec("10000"),
		Total:         dec("120000"),
	})
	require.NoError(t, err)
	assertDecimal(t, "1.2", res.Allocation.Multiplier)
	assertDecimal(t, "120000", f.balance(t, y.ID))
	assert.Equal(t, DefaultBillTitle, res.Bill.Title)
}

func TestFinalizeSplit_RetryOnlyFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addFriend(t, "Alice")

	req := SplitRequest{
		Title: "Pizza night",
		Items: []models.BillItem{
			billItem("Pizza", "40", "1", alice.ID, "ghost"),
		},
	}

	// ghost does not exist yet, so its charge fails while Alice's commits.
	res, err := f.ledger.FinalizeSplit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, res.FailedFriendIDs())
	for _, a := range res.Assignments {
		if a.FriendID == "ghost" {
			assert.ErrorIs(t, a.Err, apperrors.ErrFriendNotFound)
		} else {
			assert.NotEmpty(t, a.TransactionID)
		}
	}
	assertDecimal(t, "20", f.balance(t, alice.ID))
	require.NotNil(t, res.Bill, "bill is archived even when a charge fails")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SplitAssignments.WithLabelValues("failed")))

	// The friend shows up; retry just that charge.
	require.NoError(t, f.store.CreateFriend(ctx, &models.Friend{ID: "ghost", Name: "Ghost"}))
	req.OnlyFriendIDs = []string{"ghost"}
	res, err = f.ledger.FinalizeSplit(ctx, req)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	assert.NoError(t, res.Assignments[0].Err)
	assert.Nil(t, res.Bill, "retries do not archive the bill again")

	assertDecimal(t, "20", f.balance(t, alice.ID))
	assertDecimal(t, "20", f.balance(t, "ghost"))

	bills, err := f.ledger.ListBills(ctx)
	require.NoError(t, err)
	assert.Len(t, bills, 1)
}

func TestFinalizeSplit_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addFriend(t, "A")

	tests := []struct {
		name string
		req  SplitRequest
	}{
		{
			name: "nothing assigned",
			req:  SplitRequest{Items: []models.BillItem{billItem("Water", "5", "1")}},
		},
		{
			name: "negative price",
			req:  SplitRequest{Items: []models.BillItem{billItem("Refund", "-5", "1", a.ID)}},
		},
		{
			name: "retry for friend without a share",
			req: SplitRequest{
				Items:         []models.BillItem{billItem("Tea", "5", "1", a.ID)},
				OnlyFriendIDs: []string{"someone-else"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.FinalizeSplit(ctx, tt.req)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	assert.True(t, f.balance(t, a.ID).IsZero())
	bills, err := f.ledger.ListBills(ctx)
	require.NoError(t, err)
	assert.Empty(t, bills)
}
