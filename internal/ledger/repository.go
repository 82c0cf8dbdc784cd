package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/coa"
)

// Store is the read boundary to the external ledger store. Report
// computation is a pure function of what these calls return; the store
// owns persistence and point-in-time consistency. Snapshot returns the
// chart and the line items as of a single point in time: a voucher
// committed between separate ListAccounts/ListLineItems calls would
// reference accounts the chart read missed.
type Store interface {
	ListAccounts(ctx context.Context, accountBookID uuid.UUID) ([]coa.Account, error)
	ListLineItems(ctx context.Context, accountBookID uuid.UUID, from, to time.Time) ([]LineItem, error)
	Snapshot(ctx context.Context, accountBookID uuid.UUID, from, to time.Time) ([]coa.Account, []LineItem, error)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads the ledger store from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListAccounts returns the chart of accounts for an account book.
func (r *Repository) ListAccounts(ctx context.Context, accountBookID uuid.UUID) ([]coa.Account, error) {
	return listAccounts(ctx, r.pool, accountBookID)
}

// ListLineItems returns line items joined with their voucher id, number
// and date for vouchers dated in [from, to).
func (r *Repository) ListLineItems(ctx context.Context, accountBookID uuid.UUID, from, to time.Time) ([]LineItem, error) {
	return listLineItems(ctx, r.pool, accountBookID, from, to)
}

// Snapshot reads accounts and line items inside one repeatable-read
// transaction so the computation sees a single consistent point in time.
func (r *Repository) Snapshot(ctx context.Context, accountBookID uuid.UUID, from, to time.Time) ([]coa.Account, []LineItem, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, nil, mapPgError("begin snapshot", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	accounts, err := listAccounts(ctx, tx, accountBookID)
	if err != nil {
		return nil, nil, err
	}
	items, err := listLineItems(ctx, tx, accountBookID, from, to)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, mapPgError("commit snapshot", err)
	}
	return accounts, items, nil
}

func listAccounts(ctx context.Context, q querier, accountBookID uuid.UUID) ([]coa.Account, error) {
	rows, err := q.Query(ctx, `
		SELECT code, name, COALESCE(parent_code, ''), COALESCE(root_code, code), type, debit_normal, liquidity, for_user, created_at
		FROM accounts
		WHERE account_book_id = $1
		ORDER BY code`, accountBookID)
	if err != nil {
		return nil, mapPgError("list accounts", err)
	}
	defer rows.Close()
	var accounts []coa.Account
	for rows.Next() {
		var a coa.Account
		if err := rows.Scan(&a.Code, &a.Name, &a.ParentCode, &a.RootCode, &a.Type, &a.DebitNormal, &a.Liquidity, &a.ForUser, &a.CreatedAt); err != nil {
			return nil, err
		}
		if err := ValidateAccount(a); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func listLineItems(ctx context.Context, q querier, accountBookID uuid.UUID, from, to time.Time) ([]LineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT li.account_code, v.id, v.no, v.date, li.debit, li.amount::text, COALESCE(li.description, '')
		FROM line_items li
		JOIN vouchers v ON v.id = li.voucher_id
		WHERE v.account_book_id = $1 AND v.date >= $2 AND v.date < $3
		ORDER BY v.date, v.no, li.account_code`, accountBookID, from, to)
	if err != nil {
		return nil, mapPgError("list line items", err)
	}
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		var (
			item   LineItem
			amount string
		)
		if err := rows.Scan(&item.AccountCode, &item.VoucherID, &item.VoucherNo, &item.VoucherDate, &item.Debit, &amount, &item.Description); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, &SchemaError{Record: item, Violations: []string{fmt.Sprintf("Amount: %q is not a decimal", amount)}}
		}
		item.Amount = parsed
		if err := ValidateLineItem(item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func mapPgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("ledger: %s: %s (%s)", op, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("ledger: %s: %w", op, err)
}
