package reports

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/coa"
	_ "github.com/meridian-books/meridian/testing"
)

func rowsFor(rows []LedgerRow, code string) []LedgerRow {
	out := make([]LedgerRow, 0, len(rows))
	for _, row := range rows {
		if row.AccountCode == code {
			out = append(out, row)
		}
	}
	return out
}

func TestBuildLedgerRowsRunningBalance(t *testing.T) {
	forest := coa.BuildForest(statementChart(), nil)
	period := StatutoryPeriod(date(2025, 3, 10))
	rows := BuildLedgerRows(forest, statementItems(), period)

	cash := rowsFor(rows, "1100")
	if len(cash) != 3 {
		t.Fatalf("expected 3 cash postings in the window, got %d", len(cash))
	}
	want := []int64{160000, 145000, 135000}
	for i, row := range cash {
		if !row.Balance.Equal(decimal.NewFromInt(want[i])) {
			t.Fatalf("cash row %d: balance %s, want %d", i, row.Balance, want[i])
		}
	}
	if cash[0].AccountingTitle != "Cash" {
		t.Fatalf("expected resolved account name, got %q", cash[0].AccountingTitle)
	}
}

func TestBuildLedgerRowsOpeningBalance(t *testing.T) {
	forest := coa.BuildForest(statementChart(), nil)
	period := StatutoryPeriod(date(2025, 3, 10))
	rows := BuildLedgerRows(forest, statementItems(), period)

	// The first cash posting in March opens from the January funding,
	// not from zero.
	cash := rowsFor(rows, "1100")
	if cash[0].Balance.Sub(cash[0].DebitAmount).Cmp(decimal.NewFromInt(100000)) != 0 {
		t.Fatalf("expected opening 100000 before first posting, got %s", cash[0].Balance.Sub(cash[0].DebitAmount))
	}
}

func TestBuildLedgerRowsCreditNormalBalance(t *testing.T) {
	forest := coa.BuildForest(statementChart(), nil)
	period := StatutoryPeriod(date(2025, 3, 10))
	rows := BuildLedgerRows(forest, statementItems(), period)

	// Loans Payable is credit-normal, so a credit posting grows the balance.
	loans := rowsFor(rows, "2000")
	if len(loans) != 1 {
		t.Fatalf("expected 1 loan posting, got %d", len(loans))
	}
	if !loans[0].Balance.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("expected loan balance 20000, got %s", loans[0].Balance)
	}
	if !loans[0].CreditAmount.Equal(decimal.NewFromInt(20000)) || !loans[0].DebitAmount.IsZero() {
		t.Fatalf("expected one-sided credit row, got %+v", loans[0])
	}
}

func TestBuildLedgerRowsOrdering(t *testing.T) {
	forest := coa.BuildForest(statementChart(), nil)
	period := StatutoryPeriod(date(2025, 3, 10))
	rows := BuildLedgerRows(forest, statementItems(), period)

	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if cur.VoucherDate.Before(prev.VoucherDate) {
			t.Fatalf("rows out of date order at %d", i)
		}
		if cur.VoucherDate.Equal(prev.VoucherDate) && cur.VoucherNumber < prev.VoucherNumber {
			t.Fatalf("rows out of voucher order at %d", i)
		}
	}
}

func TestBuildLedgerRowsExcludesOutsideWindow(t *testing.T) {
	forest := coa.BuildForest(statementChart(), nil)
	period := StatutoryPeriod(date(2025, 3, 10))
	rows := BuildLedgerRows(forest, statementItems(), period)

	for _, row := range rows {
		if !period.Contains(row.VoucherDate) {
			t.Fatalf("row dated %s is outside the window", row.VoucherDate)
		}
	}
	if len(rowsFor(rows, "3000")) != 0 {
		t.Fatal("prior-period capital posting must not appear in the listing")
	}
}
