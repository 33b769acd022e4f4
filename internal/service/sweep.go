package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type SweepResult struct {
	SlotsCompleted   int `json:"slotsCompleted"`
	TakeoversExpired int `json:"takeoversExpired"`
}

// Sweeper runs the slot expiry and takeover expiry passes together. It is
// triggered by the CLI, the admin endpoint or the in-process ticker.
type Sweeper struct {
	slots     *SlotService
	takeovers *TakeoverService
	logger    *zap.Logger
}

func NewSweeper(slots *SlotService, takeovers *TakeoverService, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		slots:     slots,
		takeovers: takeovers,
		logger:    logger,
	}
}

// Run executes both passes. A failure in one does not skip the other.
func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	completed, slotErr := s.slots.ExpirySweep(ctx)
	res.SlotsCompleted = completed

	expired, takeoverErr := s.takeovers.ExpireSweep(ctx)
	res.TakeoversExpired = expired

	err := errors.Join(slotErr, takeoverErr)
	if err != nil {
		s.logger.Error("Sweep finished with errors",
			zap.Int("slots_completed", res.SlotsCompleted),
			zap.Int("takeovers_expired", res.TakeoversExpired),
			zap.Error(err),
		)
	}
	return res, err
}
