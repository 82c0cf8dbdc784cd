package reports

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-books/meridian/internal/coa"
	"github.com/meridian-books/meridian/internal/ledger"
	"github.com/meridian-books/meridian/internal/shared"
)

// Service computes reports from an injected ledger store. The store is
// owned by the caller; the service never constructs or caches its own
// connection. Each request reads one immutable snapshot and computes
// from it, so concurrent requests need no coordination.
type Service struct {
	store  ledger.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a report service instance.
func NewService(store ledger.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// TrialBalanceQuery bounds one trial balance computation. StartDate and
// EndDate are inclusive dates.
type TrialBalanceQuery struct {
	AccountBookID uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     shared.SortOrder
}

// LedgerQuery bounds one ledger listing.
type LedgerQuery struct {
	AccountBookID uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	AccountCode   string
	Page          int
	PageSize      int
}

// ReportQuery selects a statement for a period.
type ReportQuery struct {
	AccountBookID uuid.UUID
	SheetType     string
	StartDate     time.Time
	EndDate       time.Time
}

func window(start, end time.Time) Period {
	return Period{BeginCutoff: start, EndCutoff: end.AddDate(0, 0, 1)}
}

// snapshot fetches the chart and every line item up to the window end
// in one consistent store read, validates each voucher's balance
// invariant, and resolves the forest. Postings before the window feed
// beginning balances, so the fetch is unbounded at the start.
func (s *Service) snapshot(ctx context.Context, accountBookID uuid.UUID, period Period) (*coa.Forest, []ledger.LineItem, error) {
	accounts, items, err := s.store.Snapshot(ctx, accountBookID, time.Time{}, period.EndCutoff)
	if err != nil {
		return nil, nil, err
	}
	for _, voucher := range ledger.GroupByVoucher(items) {
		if err := ledger.CheckVoucher(voucher, ledger.BalanceTolerance); err != nil {
			return nil, nil, err
		}
	}
	return coa.BuildForest(accounts, s.logger), items, nil
}

// TrialBalance computes the paginated trial balance for the window.
func (s *Service) TrialBalance(ctx context.Context, q TrialBalanceQuery) (shared.Paginated[TrialBalanceItem], error) {
	period := window(q.StartDate, q.EndDate)
	forest, items, err := s.snapshot(ctx, q.AccountBookID, period)
	if err != nil {
		return shared.Paginated[TrialBalanceItem]{}, err
	}
	tb, err := BuildTrialBalance(forest, CategorizeAndMerge(items, period), ledger.BalanceTolerance)
	if err != nil {
		return shared.Paginated[TrialBalanceItem]{}, err
	}
	sortOpts := []shared.SortOption{}
	if q.SortBy != "" {
		SortTrialBalanceItems(tb, q.SortBy, string(q.SortOrder))
		sortOpts = append(sortOpts, shared.SortOption{SortBy: q.SortBy, SortOrder: q.SortOrder})
	}
	return shared.Paginate(tb, q.Page, q.PageSize, sortOpts), nil
}

// Ledger computes the paginated ledger listing for the window.
func (s *Service) Ledger(ctx context.Context, q LedgerQuery) (shared.Paginated[LedgerRow], error) {
	period := window(q.StartDate, q.EndDate)
	forest, items, err := s.snapshot(ctx, q.AccountBookID, period)
	if err != nil {
		return shared.Paginated[LedgerRow]{}, err
	}
	rows := BuildLedgerRows(forest, items, period)
	if q.AccountCode != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.AccountCode == q.AccountCode {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	return shared.Paginate(rows, q.Page, q.PageSize, nil), nil
}

// Report generates the requested financial statement. The sheet type is
// validated before any data is fetched.
func (s *Service) Report(ctx context.Context, q ReportQuery) (ReportContent, error) {
	sheetType, err := ParseSheetType(q.SheetType)
	if err != nil {
		return ReportContent{}, err
	}
	period := window(q.StartDate, q.EndDate)
	forest, items, err := s.snapshot(ctx, q.AccountBookID, period)
	if err != nil {
		return ReportContent{}, err
	}
	current, err := BuildTrialBalance(forest, CategorizeAndMerge(items, period), ledger.BalanceTolerance)
	if err != nil {
		return ReportContent{}, err
	}
	previous, err := BuildTrialBalance(forest, CategorizeAndMerge(items, period.Previous()), ledger.BalanceTolerance)
	if err != nil {
		return ReportContent{}, err
	}
	return Generate(sheetType, GeneratorInput{
		Forest:   forest,
		Current:  current,
		Previous: previous,
		Items:    items,
		Period:   period,
	})
}
