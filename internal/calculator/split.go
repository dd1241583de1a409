package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/money"
)

// SplitInput is an itemized bill with its surcharge totals.
// Subtotal and Total are hints: zero means "derive it".
type SplitInput struct {
	Items         []models.BillItem
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
	Total         decimal.Decimal
}

// Allocation is the outcome of splitting a bill.
type Allocation struct {
	// Shares maps friend ID to the rounded amount owed. Friends whose share
	// rounds to zero or less are left out.
	Shares map[string]decimal.Decimal

	CalcSubtotal      decimal.Decimal
	EffectiveSubtotal decimal.Decimal
	EffectiveTotal    decimal.Decimal
	Multiplier        decimal.Decimal

	// Unassigned lists the names of items nobody was assigned to. They add
	// nothing to any share.
	Unassigned []string
}

// FriendIDs returns the friends with a share, sorted.
func (a *Allocation) FriendIDs() []string {
	ids := make([]string, 0, len(a.Shares))
	for id := range a.Shares {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Total returns the sum of all shares.
func (a *Allocation) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range a.Shares {
		total = total.Add(amount)
	}
	return total
}

// Allocate computes how much each assignee owes, spreading tax and service
// charge over items in proportion to their cost.
// Based on: multiplier = total / subtotal, person_share = Σ item_cost × multiplier / |assignees|.
func Allocate(in SplitInput) (*Allocation, error) {
	if in.Tax.IsNegative() || in.ServiceCharge.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "tax and service charge cannot be negative")
	}
	for _, x := range []decimal.Decimal{in.Subtotal, in.Tax, in.ServiceCharge, in.Total} {
		if err := money.CheckRange(x); err != nil {
			return nil, err
		}
	}

	calcSubtotal := decimal.Zero
	for _, item := range in.Items {
		if item.Price.IsNegative() || item.Quantity.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
				fmt.Sprintf("item %q has a negative price or quantity", item.Name))
		}
		if err := money.CheckRange(item.Price); err != nil {
			return nil, err
		}
		if err := money.CheckRange(item.Quantity); err != nil {
			return nil, err
		}
		calcSubtotal = calcSubtotal.Add(item.Cost())
	}

	effectiveSubtotal := calcSubtotal
	if in.Subtotal.IsPositive() {
		effectiveSubtotal = in.Subtotal
	}

	effectiveTotal := effectiveSubtotal.Add(in.Tax).Add(in.ServiceCharge)
	if in.Total.IsPositive() {
		effectiveTotal = in.Total
	}

	multiplier := decimal.NewFromInt(1)
	if effectiveSubtotal.IsPositive() {
		// Keep enough precision that rounding only happens once, per share.
		multiplier = effectiveTotal.DivRound(effectiveSubtotal, 16)
	}

	alloc := &Allocation{
		Shares:            make(map[string]decimal.Decimal),
		CalcSubtotal:      calcSubtotal,
		EffectiveSubtotal: effectiveSubtotal,
		EffectiveTotal:    effectiveTotal,
		Multiplier:        multiplier,
	}

	raw := make(map[string]decimal.Decimal)
	for _, item := range in.Items {
		assignees := uniqueAssignees(item.AssignedTo)
		if len(assignees) == 0 {
			alloc.Unassigned = append(alloc.Unassigned, item.Name)
			continue
		}

		itemCost := item.Cost().Mul(multiplier)
		perPerson := itemCost.DivRound(decimal.NewFromInt(int64(len(assignees))), 16)
		for _, friendID := range assignees {
			raw[friendID] = raw[friendID].Add(perPerson)
		}
	}

	for friendID, amount := range raw {
		rounded := money.Round2(amount)
		if !rounded.IsPositive() {
			continue
		}
		alloc.Shares[friendID] = rounded
	}

	return alloc, nil
}

// uniqueAssignees drops empty and repeated IDs, keeping first-seen order.
func uniqueAssignees(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
