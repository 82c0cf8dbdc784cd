package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one debit or credit entry referencing a single account
// within a voucher. VoucherNo and VoucherDate are denormalised from the
// owning voucher by the store so one fetch carries everything a report
// computation needs.
type LineItem struct {
	AccountCode string          `json:"accountCode" validate:"required"`
	VoucherID   uuid.UUID       `json:"voucherId" validate:"required"`
	VoucherNo   string          `json:"voucherNo"`
	VoucherDate time.Time       `json:"voucherDate" validate:"required"`
	Debit       bool            `json:"debit"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Voucher is an atomic, balanced transaction composed of line items.
type Voucher struct {
	ID        uuid.UUID  `json:"id"`
	No        string     `json:"no"`
	Date      time.Time  `json:"date"`
	LineItems []LineItem `json:"lineItems"`
}

// Totals sums the voucher's debit and credit sides.
func (v Voucher) Totals() (debit, credit decimal.Decimal) {
	for _, item := range v.LineItems {
		if item.Debit {
			debit = debit.Add(item.Amount)
		} else {
			credit = credit.Add(item.Amount)
		}
	}
	return debit, credit
}

// GroupByVoucher reassembles fetched line items into vouchers, ordered by
// voucher date then ID. Items sharing (accountCode, voucherId) stay as
// separate rows; grouping never collapses them.
func GroupByVoucher(items []LineItem) []Voucher {
	byID := make(map[uuid.UUID]*Voucher)
	order := make([]uuid.UUID, 0)
	for _, item := range items {
		v, ok := byID[item.VoucherID]
		if !ok {
			v = &Voucher{ID: item.VoucherID, No: item.VoucherNo, Date: item.VoucherDate}
			byID[item.VoucherID] = v
			order = append(order, item.VoucherID)
		}
		v.LineItems = append(v.LineItems, item)
	}
	out := make([]Voucher, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
