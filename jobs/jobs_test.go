package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-books/meridian/internal/coa"
	"github.com/meridian-books/meridian/internal/ledger"
	_ "github.com/meridian-books/meridian/testing"
)

type fakeWarmer struct {
	sheets []string
	err    error
}

func (f *fakeWarmer) WarmReport(ctx context.Context, accountBookID uuid.UUID, sheetType string, start, end time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.sheets = append(f.sheets, sheetType)
	return nil
}

func TestReportWarmupHandleDefaultsToAllSheets(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewReportWarmupJob(warmer, nil)
	job.clock = func() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }

	task, err := NewReportWarmupTask(ReportWarmupPayload{AccountBookID: uuid.NewString()})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"BALANCE_SHEET", "INCOME_STATEMENT", "CASH_FLOW_STATEMENT"}, warmer.sheets)
}

func TestReportWarmupHandleSkipsRetryOnBadPayload(t *testing.T) {
	job := NewReportWarmupJob(&fakeWarmer{}, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskReportWarmup, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewReportWarmupTask(ReportWarmupPayload{AccountBookID: "not-a-uuid"})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)

	task, err = NewReportWarmupTask(ReportWarmupPayload{
		AccountBookID: uuid.NewString(),
		StartDate:     "2025-04-30",
		EndDate:       "2025-03-01",
	})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestReportWarmupHandlePropagatesBuildErrors(t *testing.T) {
	boom := errors.New("store down")
	job := NewReportWarmupJob(&fakeWarmer{err: boom}, nil)

	task, err := NewReportWarmupTask(ReportWarmupPayload{AccountBookID: uuid.NewString()})
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry, "transient build failures must be retried")
}

type scanStore struct {
	items []ledger.LineItem
}

func (s *scanStore) ListAccounts(ctx context.Context, accountBookID uuid.UUID) ([]coa.Account, error) {
	return nil, nil
}

func (s *scanStore) ListLineItems(ctx context.Context, accountBookID uuid.UUID, from, to time.Time) ([]ledger.LineItem, error) {
	return s.items, nil
}

func (s *scanStore) Snapshot(ctx context.Context, accountBookID uuid.UUID, from, to time.Time) ([]coa.Account, []ledger.LineItem, error) {
	return nil, s.items, nil
}

func scanLines(balanced bool) []ledger.LineItem {
	id := uuid.New()
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	creditAmount := decimal.NewFromInt(500)
	if !balanced {
		creditAmount = decimal.NewFromInt(400)
	}
	return []ledger.LineItem{
		{AccountCode: "1100", VoucherID: id, VoucherNo: "V-001", VoucherDate: day, Debit: true, Amount: decimal.NewFromInt(500)},
		{AccountCode: "4000", VoucherID: id, VoucherNo: "V-001", VoucherDate: day, Amount: creditAmount},
	}
}

func TestIntegrityScanHandle(t *testing.T) {
	job := NewIntegrityScanJob(&scanStore{items: scanLines(true)}, nil, nil)
	task, err := NewIntegrityScanTask(IntegrityScanPayload{AccountBookID: uuid.NewString()})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestIntegrityScanHandleReportsImbalance(t *testing.T) {
	job := NewIntegrityScanJob(&scanStore{items: scanLines(false)}, nil, nil)
	task, err := NewIntegrityScanTask(IntegrityScanPayload{AccountBookID: uuid.NewString()})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry, "corrupt data must not be retried")
	assert.Contains(t, err.Error(), "1 unbalanced")
}
