package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/DJCodeOne/freshwax-sub008/internal/config"
	"github.com/DJCodeOne/freshwax-sub008/internal/metrics"
	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/notify"
	"github.com/DJCodeOne/freshwax-sub008/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TakeoverService runs the request / approve / decline handshake between a
// waiting DJ and the DJ currently on air.
type TakeoverService struct {
	requests TakeoverStore
	slots    *SlotService
	notifier notify.Notifier
	metrics  *metrics.Metrics
	settings config.Settings
	logger   *zap.Logger
}

func NewTakeoverService(
	requests TakeoverStore,
	slots *SlotService,
	notifier notify.Notifier,
	m *metrics.Metrics,
	settings config.Settings,
	logger *zap.Logger,
) *TakeoverService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &TakeoverService{
		requests: requests,
		slots:    slots,
		notifier: notifier,
		metrics:  m,
		settings: settings,
		logger:   logger,
	}
}

// TakeoverTarget identifies the DJ being asked to hand over.
type TakeoverTarget struct {
	ID   string
	Name string
}

// Request files a pending takeover from caller to target.
func (s *TakeoverService) Request(ctx context.Context, caller Caller, target TakeoverTarget) (*model.TakeoverRequest, error) {
	if !s.settings.AllowTakeover {
		return nil, ErrTakeoverDisabled
	}
	if caller.ID == target.ID {
		return nil, ErrSelfTakeover
	}
	now := s.slots.now()

	live, err := s.liveSlotOf(ctx, target.ID)
	if err != nil {
		return nil, err
	}

	latest, err := s.requests.GetLatest(ctx, caller.ID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("get latest takeover request: %w", err)
	}
	if latest != nil && latest.IsPending() {
		if !latest.IsStale(now, s.settings.TakeoverTTL) {
			return nil, ErrDuplicateRequest
		}
		if _, err := s.requests.Resolve(ctx, latest.ID, model.TakeoverStatusExpired, now); err != nil {
			return nil, fmt.Errorf("expire stale request: %w", err)
		}
		s.metrics.Takeover(string(model.TakeoverStatusExpired))
	}

	count, err := s.requests.CountForSlot(ctx, caller.ID, live.ID)
	if err != nil {
		return nil, fmt.Errorf("count takeover requests: %w", err)
	}
	if count >= s.settings.TakeoverMaxRequests {
		return nil, ErrRequestLimitExceeded
	}

	targetName := target.Name
	if targetName == "" {
		targetName = live.DJName
	}
	req := &model.TakeoverRequest{
		ID:            uuid.NewString(),
		SlotID:        live.ID,
		RequesterID:   caller.ID,
		RequesterName: caller.Name,
		TargetDJID:    target.ID,
		TargetDJName:  targetName,
		Status:        model.TakeoverStatusPending,
		CreatedAt:     now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, base.ErrDuplicate) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("create takeover request: %w", err)
	}

	s.metrics.Takeover(string(model.TakeoverStatusPending))
	s.logger.Info("Takeover requested",
		zap.String("request_id", req.ID),
		zap.String("requester_id", req.RequesterID),
		zap.String("target_dj_id", req.TargetDJID),
		zap.String("slot_id", req.SlotID),
	)

	if err := s.notifier.TakeoverRequested(ctx, req); err != nil {
		s.logger.Warn("Failed to notify takeover target", zap.String("request_id", req.ID), zap.Error(err))
	}
	return req, nil
}

// liveSlotOf returns the target's live slot, or ErrTargetNotLive.
func (s *TakeoverService) liveSlotOf(ctx context.Context, djID string) (*model.Slot, error) {
	live, err := s.slots.Current(ctx)
	if err != nil {
		return nil, err
	}
	if live == nil || live.DJID != djID {
		return nil, ErrTargetNotLive
	}
	return live, nil
}

// Approve hands the live slot's credentials to the requester. The original
// slot stays live and its key stays active. Approving a request that is no
// longer pending reports its current status without error, finishing the
// handover first if an earlier approval stopped short of recording it.
func (s *TakeoverService) Approve(ctx context.Context, caller Caller, requesterID, targetDJID string) (*model.TakeoverRequest, error) {
	req, err := s.resolvable(ctx, caller, requesterID, targetDJID)
	if err != nil {
		return nil, err
	}
	if req.IsTerminal() {
		if req.Status == model.TakeoverStatusApproved {
			if err := s.finishHandover(ctx, req); err != nil {
				return nil, err
			}
		}
		return req, nil
	}
	now := s.slots.now()

	live, err := s.liveSlotOf(ctx, targetDJID)
	if err != nil {
		return nil, err
	}

	ok, err := s.requests.Resolve(ctx, req.ID, model.TakeoverStatusApproved, now)
	if err != nil {
		return nil, fmt.Errorf("approve takeover request: %w", err)
	}
	if !ok {
		return s.reload(ctx, requesterID, targetDJID)
	}
	req.Status = model.TakeoverStatusApproved
	req.ResolvedAt = &now

	if err := s.slots.slots.SetHandedOverTo(ctx, live.ID, req.RequesterID); err != nil {
		return nil, fmt.Errorf("record handover: %w", err)
	}

	s.metrics.Takeover(string(model.TakeoverStatusApproved))
	s.logger.Info("Takeover approved",
		zap.String("request_id", req.ID),
		zap.String("requester_id", req.RequesterID),
		zap.String("slot_id", live.ID),
	)

	if err := s.notifier.TakeoverApproved(ctx, req, s.slots.credentials(live)); err != nil {
		s.logger.Warn("Failed to notify takeover requester", zap.String("request_id", req.ID), zap.Error(err))
	}
	return req, nil
}

// finishHandover records an approved requester on the target's live slot when
// no handover is recorded yet, and resends the credentials.
func (s *TakeoverService) finishHandover(ctx context.Context, req *model.TakeoverRequest) error {
	live, err := s.liveSlotOf(ctx, req.TargetDJID)
	if errors.Is(err, ErrTargetNotLive) {
		return nil
	}
	if err != nil {
		return err
	}
	// the live slot may come from the cache, so check the stored row
	stored, err := s.slots.slots.GetByID(ctx, live.ID)
	if err != nil {
		return fmt.Errorf("get live slot: %w", err)
	}
	if stored == nil || stored.HandedOverTo != nil {
		return nil
	}

	if err := s.slots.slots.SetHandedOverTo(ctx, live.ID, req.RequesterID); err != nil {
		return fmt.Errorf("record handover: %w", err)
	}
	s.logger.Info("Takeover handover recorded on retry",
		zap.String("request_id", req.ID),
		zap.String("requester_id", req.RequesterID),
		zap.String("slot_id", live.ID),
	)

	if err := s.notifier.TakeoverApproved(ctx, req, s.slots.credentials(live)); err != nil {
		s.logger.Warn("Failed to notify takeover requester", zap.String("request_id", req.ID), zap.Error(err))
	}
	return nil
}

// Decline rejects a pending request and tells the requester.
func (s *TakeoverService) Decline(ctx context.Context, caller Caller, requesterID, targetDJID string) (*model.TakeoverRequest, error) {
	req, err := s.resolvable(ctx, caller, requesterID, targetDJID)
	if err != nil || req.IsTerminal() {
		return req, err
	}
	now := s.slots.now()

	ok, err := s.requests.Resolve(ctx, req.ID, model.TakeoverStatusDeclined, now)
	if err != nil {
		return nil, fmt.Errorf("decline takeover request: %w", err)
	}
	if !ok {
		return s.reload(ctx, requesterID, targetDJID)
	}
	req.Status = model.TakeoverStatusDeclined
	req.ResolvedAt = &now

	s.metrics.Takeover(string(model.TakeoverStatusDeclined))
	s.logger.Info("Takeover declined",
		zap.String("request_id", req.ID),
		zap.String("requester_id", req.RequesterID),
	)

	if err := s.notifier.TakeoverDeclined(ctx, req); err != nil {
		s.logger.Warn("Failed to notify takeover requester", zap.String("request_id", req.ID), zap.Error(err))
	}
	return req, nil
}

// resolvable loads the latest request for the pair and checks the caller may
// act on it. A stale pending request is expired here and returned as such.
func (s *TakeoverService) resolvable(ctx context.Context, caller Caller, requesterID, targetDJID string) (*model.TakeoverRequest, error) {
	if caller.ID != targetDJID && !caller.Admin {
		return nil, ErrUnauthorized
	}

	req, err := s.requests.GetLatest(ctx, requesterID, targetDJID)
	if err != nil {
		return nil, fmt.Errorf("get latest takeover request: %w", err)
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.IsTerminal() {
		return req, nil
	}

	now := s.slots.now()
	if req.IsStale(now, s.settings.TakeoverTTL) {
		ok, err := s.requests.Resolve(ctx, req.ID, model.TakeoverStatusExpired, now)
		if err != nil {
			return nil, fmt.Errorf("expire stale request: %w", err)
		}
		if !ok {
			return s.reload(ctx, requesterID, targetDJID)
		}
		s.metrics.Takeover(string(model.TakeoverStatusExpired))
		req.Status = model.TakeoverStatusExpired
		req.ResolvedAt = &now
	}
	return req, nil
}

// reload re-reads the pair after a conditional write lost a race.
func (s *TakeoverService) reload(ctx context.Context, requesterID, targetDJID string) (*model.TakeoverRequest, error) {
	req, err := s.requests.GetLatest(ctx, requesterID, targetDJID)
	if err != nil {
		return nil, fmt.Errorf("get latest takeover request: %w", err)
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

// ExpireSweep expires every pending request older than the TTL.
func (s *TakeoverService) ExpireSweep(ctx context.Context) (int, error) {
	now := s.slots.now()
	n, err := s.requests.ExpirePending(ctx, now.Add(-s.settings.TakeoverTTL), now)
	if err != nil {
		return 0, fmt.Errorf("expire takeover requests: %w", err)
	}
	s.metrics.Swept("takeovers", int(n))
	if n > 0 {
		s.logger.Info("Stale takeover requests expired", zap.Int64("count", n))
	}
	return int(n), nil
}

// PendingForTarget lists requests still waiting on the DJ. Stale ones are
// expired on the way and left out.
func (s *TakeoverService) PendingForTarget(ctx context.Context, targetDJID string) ([]*model.TakeoverRequest, error) {
	requests, err := s.requests.ListPendingForTarget(ctx, targetDJID)
	if err != nil {
		return nil, fmt.Errorf("list pending takeover requests: %w", err)
	}

	now := s.slots.now()
	pending := make([]*model.TakeoverRequest, 0, len(requests))
	for _, req := range requests {
		if !req.IsStale(now, s.settings.TakeoverTTL) {
			pending = append(pending, req)
			continue
		}
		if _, err := s.requests.Resolve(ctx, req.ID, model.TakeoverStatusExpired, now); err != nil {
			return nil, fmt.Errorf("expire stale request: %w", err)
		}
	}
	return pending, nil
}

// ForRequester lists the DJ's own requests, newest first. Pending requests
// past the TTL are reported as expired.
func (s *TakeoverService) ForRequester(ctx context.Context, requesterID string, limit int) ([]*model.TakeoverRequest, error) {
	requests, err := s.requests.ListForRequester(ctx, requesterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list takeover requests: %w", err)
	}
	now := s.slots.now()
	for _, req := range requests {
		if req.IsStale(now, s.settings.TakeoverTTL) {
			req.Status = model.TakeoverStatusExpired
		}
	}
	return requests, nil
}
