package ledger

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/coa"
)

// BalanceTolerance is the relative tolerance applied when comparing debit
// and credit totals. Postings that passed through binary floating point
// upstream can carry representation error, so bounded deviation is
// accepted instead of exact equality.
var BalanceTolerance = decimal.RequireFromString("1e-15")

var validate = validator.New(validator.WithRequiredStructEnabled())

// BalancedWithin reports whether two side totals agree within a relative
// tolerance: |debit - credit| <= tol * max(debit, credit).
func BalancedWithin(debit, credit, tol decimal.Decimal) bool {
	diff := debit.Sub(credit).Abs()
	if diff.IsZero() {
		return true
	}
	larger := debit
	if credit.GreaterThan(debit) {
		larger = credit
	}
	return diff.LessThanOrEqual(larger.Abs().Mul(tol))
}

// CheckVoucher enforces the central correctness contract: the voucher's
// debit total equals its credit total within tolerance.
func CheckVoucher(v Voucher, tol decimal.Decimal) error {
	debit, credit := v.Totals()
	if !BalancedWithin(debit, credit, tol) {
		return &ImbalanceError{VoucherID: v.ID, Debit: debit, Credit: credit}
	}
	return nil
}

// ValidateLineItem runs structural validation on a fetched record. The
// record is rejected with its diagnostics rather than silently coerced.
func ValidateLineItem(item LineItem) error {
	var violations []string
	if err := validate.Struct(item); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				violations = append(violations, fmt.Sprintf("%s: failed %q", ve.Field(), ve.Tag()))
			}
		} else {
			violations = append(violations, err.Error())
		}
	}
	if item.Amount.IsNegative() {
		violations = append(violations, fmt.Sprintf("Amount: %s is negative", item.Amount))
	}
	if len(violations) > 0 {
		return &SchemaError{Record: item, Violations: violations}
	}
	return nil
}

// ValidateAccount runs structural validation on a chart-of-accounts record.
func ValidateAccount(acc coa.Account) error {
	var violations []string
	if err := validate.Struct(acc); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				violations = append(violations, fmt.Sprintf("%s: failed %q", ve.Field(), ve.Tag()))
			}
		} else {
			violations = append(violations, err.Error())
		}
	}
	if len(violations) > 0 {
		return &SchemaError{Record: acc, Violations: violations}
	}
	return nil
}
