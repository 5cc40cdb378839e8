package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stocklane/stocklane/internal/inventory"
)

// InventorySnapshotJob persists per-warehouse balances for reporting.
type InventorySnapshotJob struct {
	service *inventory.Service
	logger  *slog.Logger
}

// NewInventorySnapshotJob constructs an InventorySnapshotJob.
func NewInventorySnapshotJob(service *inventory.Service, logger *slog.Logger) *InventorySnapshotJob {
	return &InventorySnapshotJob{service: service, logger: logger}
}

// Handle processes TaskInventorySnapshot tasks.
func (j *InventorySnapshotJob) Handle(ctx context.Context, _ *asynq.Task) error {
	started := time.Now()
	if err := j.service.SnapshotAll(ctx); err != nil {
		j.logger.Error("inventory snapshot", slog.Any("error", err))
		return err
	}
	j.logger.Info("inventory snapshot complete", slog.Duration("elapsed", time.Since(started)))
	return nil
}
