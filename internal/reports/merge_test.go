package reports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/ledger"
	_ "github.com/meridian-books/meridian/testing"
)

func item(account string, debit bool, amount int64, day time.Time) ledger.LineItem {
	return ledger.LineItem{
		AccountCode: account,
		VoucherID:   uuid.New(),
		VoucherNo:   "V",
		VoucherDate: day,
		Debit:       debit,
		Amount:      decimal.NewFromInt(amount),
	}
}

func TestMergeByAccount(t *testing.T) {
	day := date(2025, 3, 5)
	items := []ledger.LineItem{
		item("1141", true, 1000000, day),
		item("1141", true, 785000, day),
		item("1141", false, 0, day),
		item("4000", false, 1785000, day),
	}
	merged := MergeByAccount(items)
	if len(merged) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(merged))
	}
	pos := merged["1141"]
	if !pos.Debit.Equal(decimal.NewFromInt(1785000)) {
		t.Fatalf("unexpected debit sum for 1141: %s", pos.Debit)
	}
	if !pos.Credit.IsZero() {
		t.Fatalf("unexpected credit sum for 1141: %s", pos.Credit)
	}
}

func TestCategorizeAndMergeBuckets(t *testing.T) {
	period := StatutoryPeriod(date(2025, 3, 10))
	items := []ledger.LineItem{
		item("1141", true, 500, date(2025, 2, 20)),  // before window
		item("1141", true, 300, date(2025, 3, 1)),   // on cutoff: inside
		item("1141", true, 200, date(2025, 4, 30)),  // inside
		item("1141", true, 999, date(2025, 5, 1)),   // after window: dropped
	}
	b := CategorizeAndMerge(items, period)
	if !b.Beginning["1141"].Debit.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected beginning debit: %s", b.Beginning["1141"].Debit)
	}
	if !b.Midterm["1141"].Debit.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected midterm debit: %s", b.Midterm["1141"].Debit)
	}
}

func TestCategorizeAndMergeEmpty(t *testing.T) {
	b := CategorizeAndMerge(nil, StatutoryPeriod(date(2025, 1, 1)))
	if len(b.Beginning) != 0 || len(b.Midterm) != 0 {
		t.Fatal("empty input must yield empty buckets")
	}
}
