package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/coa"
	_ "github.com/meridian-books/meridian/testing"
)

func lineItem(account string, voucher uuid.UUID, debit bool, amount string) LineItem {
	return LineItem{
		AccountCode: account,
		VoucherID:   voucher,
		VoucherNo:   "V-1",
		VoucherDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Debit:       debit,
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestCheckVoucherBalanced(t *testing.T) {
	id := uuid.New()
	v := Voucher{ID: id, Date: time.Now(), LineItems: []LineItem{
		lineItem("1141", id, true, "1785000"),
		lineItem("4000", id, false, "1785000"),
	}}
	if err := CheckVoucher(v, BalanceTolerance); err != nil {
		t.Fatalf("balanced voucher rejected: %v", err)
	}
}

func TestCheckVoucherUnbalanced(t *testing.T) {
	id := uuid.New()
	v := Voucher{ID: id, Date: time.Now(), LineItems: []LineItem{
		lineItem("1141", id, true, "100"),
		lineItem("4000", id, false, "99"),
	}}
	err := CheckVoucher(v, BalanceTolerance)
	if err == nil {
		t.Fatal("expected imbalance error")
	}
	if !errors.Is(err, ErrImbalance) {
		t.Fatalf("expected ErrImbalance, got %v", err)
	}
	var imb *ImbalanceError
	if !errors.As(err, &imb) || imb.VoucherID != id {
		t.Fatalf("imbalance error must carry the voucher id: %v", err)
	}
}

func TestBalancedWithinTolerance(t *testing.T) {
	// A one-part-in-1e16 deviation is representation noise, not an
	// imbalance.
	debit := decimal.RequireFromString("1000000000000000")
	credit := decimal.RequireFromString("1000000000000000.0000000001")
	if !BalancedWithin(debit, credit, BalanceTolerance) {
		t.Fatal("deviation within relative tolerance must pass")
	}
	credit = decimal.RequireFromString("1000000000000100")
	if BalancedWithin(debit, credit, BalanceTolerance) {
		t.Fatal("deviation beyond relative tolerance must fail")
	}
}

func TestBalancedWithinZeroSides(t *testing.T) {
	if !BalancedWithin(decimal.Zero, decimal.Zero, BalanceTolerance) {
		t.Fatal("zero vs zero must balance")
	}
}

func TestValidateLineItemRejectsNegativeAmount(t *testing.T) {
	item := lineItem("1141", uuid.New(), true, "-5")
	err := ValidateLineItem(item)
	if err == nil {
		t.Fatal("expected schema error")
	}
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	var se *SchemaError
	if !errors.As(err, &se) || len(se.Violations) == 0 {
		t.Fatalf("schema error must carry diagnostics: %v", err)
	}
}

func TestValidateLineItemRejectsMissingAccount(t *testing.T) {
	item := lineItem("", uuid.New(), true, "10")
	if err := ValidateLineItem(item); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema for missing account code, got %v", err)
	}
}

func TestValidateAccount(t *testing.T) {
	acc := coa.Account{Code: "1141", Name: "Notes Receivable", Type: coa.AccountTypeAsset, DebitNormal: true}
	if err := ValidateAccount(acc); err != nil {
		t.Fatalf("valid account rejected: %v", err)
	}
	acc.Type = "WEIRD"
	if err := ValidateAccount(acc); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema for unknown type, got %v", err)
	}
}

func TestGroupByVoucher(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	early := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	items := []LineItem{
		{AccountCode: "1141", VoucherID: b, VoucherNo: "V-2", VoucherDate: late, Debit: true, Amount: decimal.NewFromInt(7)},
		{AccountCode: "1141", VoucherID: a, VoucherNo: "V-1", VoucherDate: early, Debit: true, Amount: decimal.NewFromInt(5)},
		{AccountCode: "4000", VoucherID: a, VoucherNo: "V-1", VoucherDate: early, Debit: false, Amount: decimal.NewFromInt(5)},
		{AccountCode: "4000", VoucherID: b, VoucherNo: "V-2", VoucherDate: late, Debit: false, Amount: decimal.NewFromInt(7)},
	}
	vouchers := GroupByVoucher(items)
	if len(vouchers) != 2 {
		t.Fatalf("expected 2 vouchers, got %d", len(vouchers))
	}
	if vouchers[0].ID != a || len(vouchers[0].LineItems) != 2 {
		t.Fatalf("expected earliest voucher first with 2 items: %+v", vouchers[0])
	}
	debit, credit := vouchers[1].Totals()
	if !debit.Equal(decimal.NewFromInt(7)) || !credit.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("unexpected totals: %s / %s", debit, credit)
	}
}
