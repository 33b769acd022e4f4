package service

import (
	"context"
	"fmt"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"go.uber.org/zap"
)

// DJService maps Telegram accounts to DJ identities.
type DJService struct {
	djs    DJStore
	logger *zap.Logger
}

func NewDJService(djs DJStore, logger *zap.Logger) *DJService {
	return &DJService{
		djs:    djs,
		logger: logger,
	}
}

// Link attaches telegramID to the DJ identified by caller, creating the DJ if
// needed. A Telegram account links to at most one DJ.
func (s *DJService) Link(ctx context.Context, caller Caller, telegramID int64) (*model.DJ, error) {
	dj := &model.DJ{ID: caller.ID, Name: caller.Name, IsAdmin: caller.Admin}
	if err := s.djs.Upsert(ctx, dj); err != nil {
		return nil, fmt.Errorf("upsert dj: %w", err)
	}
	if err := s.djs.LinkTelegram(ctx, dj.ID, telegramID); err != nil {
		return nil, fmt.Errorf("link telegram: %w", err)
	}
	dj.TelegramID = &telegramID

	s.logger.Info("Telegram linked",
		zap.String("dj_id", dj.ID),
		zap.Int64("telegram_id", telegramID),
	)
	return dj, nil
}

// CallerFor returns the DJ linked to telegramID, or ErrNotLinked.
func (s *DJService) CallerFor(ctx context.Context, telegramID int64) (Caller, error) {
	dj, err := s.djs.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return Caller{}, fmt.Errorf("get dj by telegram id: %w", err)
	}
	if dj == nil {
		return Caller{}, ErrNotLinked
	}
	return Caller{ID: dj.ID, Name: dj.Name, Admin: dj.IsAdmin}, nil
}

func (s *DJService) GetByID(ctx context.Context, id string) (*model.DJ, error) {
	return s.djs.GetByID(ctx, id)
}
