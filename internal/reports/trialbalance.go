package reports

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/coa"
	"github.com/meridian-books/meridian/internal/ledger"
)

// TrialBalanceItem is one recursive row of the trial balance. Each of
// its six amount fields equals the sum of that field across SubAccounts
// plus the account's own direct postings in the respective sub-period.
type TrialBalanceItem struct {
	AccountCode     string             `json:"accountCode"`
	Title           string             `json:"title"`
	BeginningDebit  decimal.Decimal    `json:"beginningDebit"`
	BeginningCredit decimal.Decimal    `json:"beginningCredit"`
	MidtermDebit    decimal.Decimal    `json:"midtermDebit"`
	MidtermCredit   decimal.Decimal    `json:"midtermCredit"`
	EndingDebit     decimal.Decimal    `json:"endingDebit"`
	EndingCredit    decimal.Decimal    `json:"endingCredit"`
	SubAccounts     []TrialBalanceItem `json:"subAccounts"`

	createdAt   time.Time
	debitNormal bool
}

// BuildTrialBalance combines the account forest with bucketed positions
// into the recursive trial balance. The computation is post-order: leaf
// accounts take their values from the merged positions, interior
// accounts sum all descendants plus their own direct postings, so the
// rollup invariant holds by construction.
//
// After building, root-level totals are asserted to balance within tol
// for both the beginning and midterm sub-periods; a violation means the
// source postings are corrupt and no report is returned.
func BuildTrialBalance(forest *coa.Forest, buckets Buckets, tol decimal.Decimal) ([]TrialBalanceItem, error) {
	var build func(acc coa.Account) TrialBalanceItem
	build = func(acc coa.Account) TrialBalanceItem {
		item := TrialBalanceItem{
			AccountCode: acc.Code,
			Title:       acc.Name,
			SubAccounts: []TrialBalanceItem{},
			createdAt:   acc.CreatedAt,
			debitNormal: acc.DebitNormal,
		}
		for _, child := range forest.Children(acc.Code) {
			sub := build(child)
			item.BeginningDebit = item.BeginningDebit.Add(sub.BeginningDebit)
			item.BeginningCredit = item.BeginningCredit.Add(sub.BeginningCredit)
			item.MidtermDebit = item.MidtermDebit.Add(sub.MidtermDebit)
			item.MidtermCredit = item.MidtermCredit.Add(sub.MidtermCredit)
			item.SubAccounts = append(item.SubAccounts, sub)
		}
		own := buckets.Beginning[acc.Code]
		item.BeginningDebit = item.BeginningDebit.Add(own.Debit)
		item.BeginningCredit = item.BeginningCredit.Add(own.Credit)
		own = buckets.Midterm[acc.Code]
		item.MidtermDebit = item.MidtermDebit.Add(own.Debit)
		item.MidtermCredit = item.MidtermCredit.Add(own.Credit)
		calculateEnding(&item)
		return item
	}

	items := make([]TrialBalanceItem, 0, len(forest.Roots()))
	for _, root := range forest.Roots() {
		items = append(items, build(root))
	}

	var beginDebit, beginCredit, midDebit, midCredit decimal.Decimal
	for _, item := range items {
		beginDebit = beginDebit.Add(item.BeginningDebit)
		beginCredit = beginCredit.Add(item.BeginningCredit)
		midDebit = midDebit.Add(item.MidtermDebit)
		midCredit = midCredit.Add(item.MidtermCredit)
	}
	if !ledger.BalancedWithin(beginDebit, beginCredit, tol) {
		return nil, fmt.Errorf("%w: beginning totals debit=%s credit=%s",
			ledger.ErrImbalance, beginDebit, beginCredit)
	}
	if !ledger.BalancedWithin(midDebit, midCredit, tol) {
		return nil, fmt.Errorf("%w: midterm totals debit=%s credit=%s",
			ledger.ErrImbalance, midDebit, midCredit)
	}
	return items, nil
}

// calculateEnding nets beginning and midterm by the account's normal
// balance side and re-expresses the result so only one of the ending
// pair is non-zero, matching conventional trial-balance presentation.
func calculateEnding(item *TrialBalanceItem) {
	debitSide := item.BeginningDebit.Add(item.MidtermDebit)
	creditSide := item.BeginningCredit.Add(item.MidtermCredit)
	item.EndingDebit = decimal.Zero
	item.EndingCredit = decimal.Zero
	if item.debitNormal {
		net := debitSide.Sub(creditSide)
		if net.IsNegative() {
			item.EndingCredit = net.Neg()
		} else {
			item.EndingDebit = net
		}
		return
	}
	net := creditSide.Sub(debitSide)
	if net.IsNegative() {
		item.EndingDebit = net.Neg()
	} else {
		item.EndingCredit = net
	}
}

// Trial balance sort keys.
const (
	SortByAccountCode = "accountCode"
	SortByCreatedAt   = "createdAt"
)

// SortTrialBalanceItems stably sorts rows by account code or creation
// time; sub-accounts are sorted recursively with the same comparator so
// nested order matches top-level order.
func SortTrialBalanceItems(items []TrialBalanceItem, sortBy, sortOrder string) {
	less := func(a, b TrialBalanceItem) bool {
		switch sortBy {
		case SortByCreatedAt:
			return a.createdAt.Before(b.createdAt)
		default:
			return a.AccountCode < b.AccountCode
		}
	}
	cmp := less
	if sortOrder == "desc" {
		cmp = func(a, b TrialBalanceItem) bool { return less(b, a) }
	}
	sort.SliceStable(items, func(i, j int) bool { return cmp(items[i], items[j]) })
	for i := range items {
		SortTrialBalanceItems(items[i].SubAccounts, sortBy, sortOrder)
	}
}
