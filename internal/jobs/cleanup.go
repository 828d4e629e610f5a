package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"todo-api/internal/service"
)

// CleanupJob borra periodicamente los todos archivados hace mas de 30 dias.
// La operacion subyacente es idempotente, repetirla no tiene efecto extra.
type CleanupJob struct {
	logger   *zap.Logger
	todoServ *service.TodoService
	interval time.Duration
}

func NewCleanupJob(logger *zap.Logger, todoServ *service.TodoService, interval time.Duration) *CleanupJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &CleanupJob{
		logger:   logger,
		todoServ: todoServ,
		interval: interval,
	}
}

// Run ejecuta el ciclo de limpieza hasta que el contexto se cancele.
func (j *CleanupJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := j.todoServ.DeleteOldArchived(ctx)
			if err != nil {
				j.logger.Error("cleanup archived todos failed", zap.Error(err))
				continue
			}
			j.logger.Info("archived todos cleaned up", zap.Int64("deleted", deleted))
		}
	}
}
