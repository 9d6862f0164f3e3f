package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLiveRefresh drops cached provider responses and re-warms the
	// current period.
	TaskLiveRefresh = "live:refresh"
)

// LiveRefreshPayload describes why a refresh was requested.
type LiveRefreshPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewLiveRefreshTask constructs an Asynq task.
func NewLiveRefreshTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "schedule"
	}
	data, err := json.Marshal(LiveRefreshPayload{Reason: reason, RequestedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLiveRefresh, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}
