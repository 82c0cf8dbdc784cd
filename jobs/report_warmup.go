package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/meridian-books/meridian/internal/reports"
)

const warmupDateLayout = "2006-01-02"

// ReportWarmer primes the report cache for one statement.
type ReportWarmer interface {
	WarmReport(ctx context.Context, accountBookID uuid.UUID, sheetType string, start, end time.Time) error
}

// ReportWarmupJob pre-computes statements so the first interactive
// request after a posting burst hits a warm cache.
type ReportWarmupJob struct {
	Warmer ReportWarmer
	Logger *slog.Logger
	clock  func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(warmer ReportWarmer, logger *slog.Logger) *ReportWarmupJob {
	return &ReportWarmupJob{
		Warmer: warmer,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Warmer == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	accountBookID, err := uuid.Parse(payload.AccountBookID)
	if err != nil {
		return asynq.SkipRetry
	}
	start, end, err := warmupWindow(payload, j.now())
	if err != nil {
		return asynq.SkipRetry
	}
	sheets := payload.Sheets
	if len(sheets) == 0 {
		sheets = []string{
			string(reports.SheetBalanceSheet),
			string(reports.SheetIncomeStatement),
			string(reports.SheetCashFlow),
		}
	}

	logger := j.logger().With(slog.String("account_book_id", accountBookID.String()))
	started := j.now()
	logger.Info("starting report warmup", slog.Int("sheets", len(sheets)))

	for _, sheet := range sheets {
		sheetCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := j.Warmer.WarmReport(sheetCtx, accountBookID, sheet, start, end)
		cancel()
		if err != nil {
			logger.Error("warm report", slog.String("sheet", sheet), slog.Any("error", err))
			if errors.Is(err, reports.ErrUnsupportedSheetType) {
				return asynq.SkipRetry
			}
			return err
		}
	}

	logger.Info("completed report warmup", slog.Duration("duration", time.Since(started)))
	return nil
}

// warmupWindow defaults to the statutory block enclosing now when the
// payload leaves the window unset.
func warmupWindow(payload ReportWarmupPayload, now time.Time) (time.Time, time.Time, error) {
	if payload.StartDate == "" && payload.EndDate == "" {
		period := reports.StatutoryPeriod(now)
		return period.BeginCutoff, period.InclusiveEnd(), nil
	}
	start, err := time.Parse(warmupDateLayout, payload.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(warmupDateLayout, payload.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end precedes start")
	}
	return start, end, nil
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
