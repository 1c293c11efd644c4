package market

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const warmTimeout = time.Minute

// Warmer refreshes the market cache on a cron schedule so diagnosis requests
// rarely wait on an upstream.
type Warmer struct {
	market   Service
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewWarmer creates a warmer. An empty schedule disables it.
func NewWarmer(market Service, schedule string, logger *zap.Logger) *Warmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Warmer{
		market:   market,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the refresh job and starts the scheduler.
func (w *Warmer) Start() error {
	if w.schedule == "" {
		w.logger.Info("Aquecimento do cache de mercado desativado")
		return nil
	}
	if _, err := w.cron.AddFunc(w.schedule, w.Warm); err != nil {
		return fmt.Errorf("agenda inválida para aquecimento do cache %q: %w", w.schedule, err)
	}
	w.cron.Start()
	w.logger.Info("Aquecimento do cache de mercado agendado", zap.String("schedule", w.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
}

// Warm fetches a full snapshot, refreshing every expired indicator.
func (w *Warmer) Warm() {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()

	start := time.Now()
	snapshot := w.market.GetSnapshot(ctx)
	w.logger.Info("Cache de mercado aquecido",
		zap.Duration("duration", time.Since(start)),
		zap.Time("timestamp", snapshot.Timestamp))
}
