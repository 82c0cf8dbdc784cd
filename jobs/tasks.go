package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-computes financial statements into the cache.
	TaskReportWarmup = "reports:warmup"
	// TaskIntegrityScan re-checks every voucher's balance invariant.
	TaskIntegrityScan = "ledger:integrity"
)

// ReportWarmupPayload selects the account book and window to warm.
// Dates use the YYYY-MM-DD layout. An empty Sheets list warms every
// supported statement.
type ReportWarmupPayload struct {
	AccountBookID string   `json:"accountBookId"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	Sheets        []string `json:"sheets,omitempty"`
}

// IntegrityScanPayload selects the account book to scan. An empty
// AsOfDate scans every posting up to now.
type IntegrityScanPayload struct {
	AccountBookID string `json:"accountBookId"`
	AsOfDate      string `json:"asOfDate,omitempty"`
}

// NewReportWarmupTask constructs a report warmup task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

// NewIntegrityScanTask constructs an integrity scan task.
func NewIntegrityScanTask(payload IntegrityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntegrityScan, data), nil
}
