package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/domain"
)

// SummarySource reports current tier counts.
type SummarySource interface {
	Summary(ctx context.Context) []domain.TierSummary
}

// OccupancyReporter periodically logs tier occupancy and pushes it to an
// observer, so dashboards stay current between mutations.
type OccupancyReporter struct {
	source   SummarySource
	observe  func([]domain.TierSummary)
	logger   *zap.Logger
	interval time.Duration
}

// NewOccupancyReporter builds a reporter. observe may be nil.
func NewOccupancyReporter(source SummarySource, observe func([]domain.TierSummary), logger *zap.Logger, interval time.Duration) *OccupancyReporter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &OccupancyReporter{source: source, observe: observe, logger: logger, interval: interval}
}

// Run reports once immediately and then on every tick until ctx is done.
func (r *OccupancyReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.report(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report(ctx)
		}
	}
}

func (r *OccupancyReporter) report(ctx context.Context) {
	summaries := r.source.Summary(ctx)
	if r.observe != nil {
		r.observe(summaries)
	}
	for _, s := range summaries {
		r.logger.Info("tier occupancy",
			zap.Int("tier", int(s.Tier)),
			zap.Int("capacity", s.Capacity),
			zap.Int("free", s.Free),
			zap.Int("occupied", s.Occupied))
	}
}
