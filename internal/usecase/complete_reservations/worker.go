package complete_reservations

import (
	"context"
	"time"
)

// Worker периодически запускает CompleteDue
type Worker struct {
	uc       *UseCase
	interval time.Duration
	logger   Logger
}

// NewWorker создает фоновый обработчик завершения бронирований
func NewWorker(uc *UseCase, interval time.Duration, logger Logger) *Worker {
	return &Worker{uc: uc, interval: interval, logger: logger}
}

// Run блокируется до отмены ctx. Первый проход выполняется сразу при старте.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("Completion worker started, interval=%s", w.interval)

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Completion worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if _, err := w.uc.CompleteDue(ctx); err != nil && ctx.Err() == nil {
		w.logger.Warn("Completion worker: pass finished with errors: %v", err)
	}
}
