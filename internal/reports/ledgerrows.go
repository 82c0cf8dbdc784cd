package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/coa"
	"github.com/meridian-books/meridian/internal/ledger"
)

// LedgerRow is one posting in the ledger listing with its running
// balance, expressed per the account's normal side.
type LedgerRow struct {
	AccountCode     string          `json:"accountId"`
	AccountingTitle string          `json:"accountingTitle"`
	VoucherNumber   string          `json:"voucherNumber"`
	VoucherDate     time.Time       `json:"voucherDate"`
	Particulars     string          `json:"particulars"`
	DebitAmount     decimal.Decimal `json:"debitAmount"`
	CreditAmount    decimal.Decimal `json:"creditAmount"`
	Balance         decimal.Decimal `json:"balance"`
}

// BuildLedgerRows lists window postings in voucher order with a running
// balance per account. The balance opens at the account's beginning
// position so drill-down agrees with the trial balance.
func BuildLedgerRows(forest *coa.Forest, items []ledger.LineItem, period Period) []LedgerRow {
	balances := make(map[string]decimal.Decimal)
	for code, pos := range CategorizeAndMerge(items, period).Beginning {
		balances[code] = netByNormalSide(forest, code, pos.Debit, pos.Credit)
	}

	window := make([]ledger.LineItem, 0, len(items))
	for _, item := range items {
		if period.Contains(item.VoucherDate) {
			window = append(window, item)
		}
	}
	sort.SliceStable(window, func(i, j int) bool {
		a, b := window[i], window[j]
		if !a.VoucherDate.Equal(b.VoucherDate) {
			return a.VoucherDate.Before(b.VoucherDate)
		}
		if a.VoucherNo != b.VoucherNo {
			return a.VoucherNo < b.VoucherNo
		}
		return a.AccountCode < b.AccountCode
	})

	rows := make([]LedgerRow, 0, len(window))
	for _, item := range window {
		var debit, credit decimal.Decimal
		if item.Debit {
			debit = item.Amount
		} else {
			credit = item.Amount
		}
		balances[item.AccountCode] = balances[item.AccountCode].Add(netByNormalSide(forest, item.AccountCode, debit, credit))
		title := item.AccountCode
		if acc, ok := forest.Lookup(item.AccountCode); ok {
			title = acc.Name
		}
		rows = append(rows, LedgerRow{
			AccountCode:     item.AccountCode,
			AccountingTitle: title,
			VoucherNumber:   item.VoucherNo,
			VoucherDate:     item.VoucherDate,
			Particulars:     item.Description,
			DebitAmount:     debit,
			CreditAmount:    credit,
			Balance:         balances[item.AccountCode],
		})
	}
	return rows
}

func netByNormalSide(forest *coa.Forest, code string, debit, credit decimal.Decimal) decimal.Decimal {
	if acc, ok := forest.Lookup(code); ok && !acc.DebitNormal {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}
