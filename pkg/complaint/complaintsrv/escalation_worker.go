package complaintsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/hireline/pkg/logx"
)

// Escalator is the part of the complaint service the worker drives
type Escalator interface {
	EscalateOverdue(ctx context.Context) (int, error)
}

// EscalationWorker revisa periódicamente los SLA vencidos
type EscalationWorker struct {
	escalator Escalator
	interval  time.Duration
}

func NewEscalationWorker(escalator Escalator, interval time.Duration) *EscalationWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &EscalationWorker{escalator: escalator, interval: interval}
}

// Start bloquea hasta que ctx termine
func (w *EscalationWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logx.Info("Escalation worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *EscalationWorker) RunOnce(ctx context.Context) {
	n, err := w.escalator.EscalateOverdue(ctx)
	if err != nil {
		logx.Errorf("Error escalating complaints: %v", err)
		return
	}
	if n > 0 {
		logx.Infof("Escalated %d complaints", n)
	}
}
