package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/observability/metrics"
)

// RetentionWorker periodically purges bookings that ended longer ago
// than the retention window, keeping the bookings table from growing
// without bound.
type RetentionWorker struct {
	bookings  domain.BookingRepository
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
}

// NewRetentionWorker creates a new retention worker.
func NewRetentionWorker(
	bookings domain.BookingRepository,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *RetentionWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionWorker{
		bookings:  bookings,
		logger:    logger,
		interval:  interval,
		retention: retention,
	}
}

// Start begins the retention loop. It runs in a goroutine until the
// context is cancelled.
func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("retention worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("retention", w.retention),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker stopped")
			return
		case <-ticker.C:
			w.purgeExpired(ctx)
		}
	}
}

func (w *RetentionWorker) purgeExpired(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)

	purged, err := w.bookings.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error("retention purge failed", slog.String("error", err.Error()))
		return
	}

	metrics.ObserveBookingsPurged(int(purged))
	if purged > 0 {
		w.logger.Info("purged expired bookings",
			slog.Int64("count", purged),
			slog.Time("cutoff", cutoff),
		)
	}
}
