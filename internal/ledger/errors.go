package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrImbalance indicates a voucher or aggregate failed the
	// debit-equals-credit invariant beyond tolerance. Fatal: the source
	// postings are corrupt and no report may be produced from them.
	ErrImbalance = errors.New("ledger: debits and credits do not balance")

	// ErrSchema indicates a fetched record failed structural validation
	// before entering the pipeline.
	ErrSchema = errors.New("ledger: record failed schema validation")

	// ErrNotFound indicates the requested account book does not exist.
	ErrNotFound = errors.New("ledger: not found")
)

// ImbalanceError reports the offending voucher with both side totals.
type ImbalanceError struct {
	VoucherID uuid.UUID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("ledger: voucher %s unbalanced: debit=%s credit=%s",
		e.VoucherID, e.Debit.String(), e.Credit.String())
}

func (e *ImbalanceError) Unwrap() error { return ErrImbalance }

// SchemaError carries the rejected payload and its validation diagnostics.
type SchemaError struct {
	Record     any
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("ledger: schema validation failed: %s", strings.Join(e.Violations, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
