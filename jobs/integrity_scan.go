package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/meridian-books/meridian/internal/ledger"
	"github.com/meridian-books/meridian/internal/observability"
)

// IntegrityScanJob re-validates every voucher in an account book against
// the balance invariant. A failed scan means the stored postings are
// corrupt; the task is not retried because a retry cannot fix the data.
type IntegrityScanJob struct {
	Store   ledger.Store
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewIntegrityScanJob wires dependencies for the scan handler.
func NewIntegrityScanJob(store ledger.Store, logger *slog.Logger, metrics *observability.Metrics) *IntegrityScanJob {
	return &IntegrityScanJob{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes integrity scan tasks.
func (j *IntegrityScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("integrity scan: handler not configured")
	}
	var payload IntegrityScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	accountBookID, err := uuid.Parse(payload.AccountBookID)
	if err != nil {
		return asynq.SkipRetry
	}
	cutoff := j.now()
	if payload.AsOfDate != "" {
		asOf, err := time.Parse(warmupDateLayout, payload.AsOfDate)
		if err != nil {
			return asynq.SkipRetry
		}
		cutoff = asOf.AddDate(0, 0, 1)
	}

	logger := j.logger().With(slog.String("account_book_id", accountBookID.String()))
	started := j.now()

	items, err := j.Store.ListLineItems(ctx, accountBookID, time.Time{}, cutoff)
	if err != nil {
		logger.Error("load line items", slog.Any("error", err))
		return err
	}

	vouchers := ledger.GroupByVoucher(items)
	unbalanced := 0
	for _, voucher := range vouchers {
		if err := ledger.CheckVoucher(voucher, ledger.BalanceTolerance); err != nil {
			unbalanced++
			j.Metrics.ObserveIntegrityViolation()
			logger.Error("unbalanced voucher",
				slog.String("voucher_id", voucher.ID.String()),
				slog.String("voucher_no", voucher.No),
				slog.Any("error", err))
		}
	}

	logger.Info("completed integrity scan",
		slog.Int("vouchers", len(vouchers)),
		slog.Int("unbalanced", unbalanced),
		slog.Duration("duration", time.Since(started)))
	if unbalanced > 0 {
		return fmt.Errorf("integrity scan: %d unbalanced vouchers: %w", unbalanced, asynq.SkipRetry)
	}
	return nil
}

func (j *IntegrityScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskIntegrityScan))
	}
	return slog.Default().With(slog.String("job", TaskIntegrityScan))
}

func (j *IntegrityScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
