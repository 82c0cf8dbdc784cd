package reports

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/ledger"
)

// Position is the net debit/credit standing of one account.
type Position struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Add accumulates a single line item into the position.
func (p Position) Add(item ledger.LineItem) Position {
	if item.Debit {
		p.Debit = p.Debit.Add(item.Amount)
	} else {
		p.Credit = p.Credit.Add(item.Amount)
	}
	return p
}

// MergeByAccount accumulates debit and credit sums per account code in a
// single pass. Aggregation is account-level only; rows from different
// vouchers are never collapsed below this aggregate, so per-voucher
// traceability survives in the ledger listing.
func MergeByAccount(items []ledger.LineItem) map[string]Position {
	merged := make(map[string]Position)
	for _, item := range items {
		merged[item.AccountCode] = merged[item.AccountCode].Add(item)
	}
	return merged
}

// Buckets splits merged positions by voucher date against the period
// boundaries. Items before the window accumulate into Beginning; items
// inside the window into Midterm. The ending balance is always derived
// from these two, never summed directly from line items.
type Buckets struct {
	Beginning map[string]Position
	Midterm   map[string]Position
}

// CategorizeAndMerge performs the bucketed merge for one period.
func CategorizeAndMerge(items []ledger.LineItem, period Period) Buckets {
	b := Buckets{
		Beginning: make(map[string]Position),
		Midterm:   make(map[string]Position),
	}
	for _, item := range items {
		switch {
		case period.BeforeWindow(item.VoucherDate):
			b.Beginning[item.AccountCode] = b.Beginning[item.AccountCode].Add(item)
		case period.Contains(item.VoucherDate):
			b.Midterm[item.AccountCode] = b.Midterm[item.AccountCode].Add(item)
		}
	}
	return b
}
