package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockAlertScan sweeps every tenant for items at or below threshold.
	TaskStockAlertScan = "stock:alert_scan"
)

// AlertScanPayload carries scheduling metadata.
type AlertScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewAlertScanTask constructs an Asynq task for the low-stock sweep.
func NewAlertScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(AlertScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAlertScan, body, asynq.Queue(QueueDefault)), nil
}
