package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskInventorySnapshot is the task type for the nightly balance snapshot.
	TaskInventorySnapshot = "inventory:snapshot"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewInventorySnapshotTask constructs the nightly snapshot task.
func NewInventorySnapshotTask() *asynq.Task {
	return asynq.NewTask(TaskInventorySnapshot, nil)
}

// SendEmailJob delivers queued emails.
type SendEmailJob struct {
	logger *slog.Logger
	from   string
}

// NewSendEmailJob constructs a SendEmailJob.
func NewSendEmailJob(logger *slog.Logger, from string) *SendEmailJob {
	return &SendEmailJob{logger: logger, from: from}
}

// Handle processes TaskTypeSendEmail tasks.
// Delivery is a log line until the SMTP relay is provisioned; the payload
// shape is final.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	j.logger.Info("send email",
		slog.String("from", j.from),
		slog.String("to", payload.To),
		slog.String("subject", payload.Subject),
	)
	return nil
}
