package app

import (
	"context"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"go.uber.org/zap"
)

// Scheduler runs the expiry sweep on a fixed interval inside the serve process.
type Scheduler struct {
	sweeper  *service.Sweeper
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewScheduler(sweeper *service.Sweeper, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the ticker goroutine. A non-positive interval leaves sweeping
// to the external trigger.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("In-process sweep disabled")
		return
	}
	s.logger.Info("Starting background sweep", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
}

func (s *Scheduler) run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Sweep task cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	res, err := s.sweeper.Run(ctx)
	if err != nil {
		return
	}
	if res.SlotsCompleted > 0 || res.TakeoversExpired > 0 {
		s.logger.Info("Sweep completed",
			zap.Int("slots_completed", res.SlotsCompleted),
			zap.Int("takeovers_expired", res.TakeoversExpired),
		)
	}
}
