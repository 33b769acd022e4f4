// Package memory holds process-local stores with the same guarantees as the
// Postgres ones. serve uses them in development when no DB_DSN is set.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/repository/base"
)

// SlotRepository enforces the no-overlap rule for confirmed and live slots and
// the single live slot rule, like the exclusion constraint and partial unique
// index in the schema.
type SlotRepository struct {
	mu    sync.Mutex
	byID  map[string]*model.Slot
	order []string
	usage *UsageRepository
}

// NewSlotRepository credits completed slots to usage. A nil usage skips the credit.
func NewSlotRepository(usage *UsageRepository) *SlotRepository {
	return &SlotRepository{byID: make(map[string]*model.Slot), usage: usage}
}

func copySlot(s *model.Slot) *model.Slot {
	cp := *s
	return &cp
}

// Create stores all slots or none.
func (r *SlotRepository) Create(_ context.Context, slots ...*model.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make([]*model.Slot, 0, len(slots))
	for _, s := range slots {
		if _, ok := r.byID[s.ID]; ok {
			return fmt.Errorf("create slot: %w", base.ErrDuplicate)
		}
		for _, other := range append(r.all(), pending...) {
			if s.Status.IsBlocking() && other.Status.IsBlocking() && other.Overlaps(s.StartTime, s.EndTime) {
				return fmt.Errorf("create slot: %w", base.ErrConflict)
			}
			if s.Status == model.SlotStatusLive && other.Status == model.SlotStatusLive {
				return fmt.Errorf("create slot: %w", base.ErrDuplicate)
			}
		}
		pending = append(pending, s)
	}

	now := time.Now()
	for _, s := range pending {
		cp := copySlot(s)
		cp.CreatedAt, cp.UpdatedAt = now, now
		r.byID[s.ID] = cp
		r.order = append(r.order, s.ID)
	}
	return nil
}

func (r *SlotRepository) all() []*model.Slot {
	out := make([]*model.Slot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *SlotRepository) find(match func(*model.Slot) bool, less func(a, b *model.Slot) bool) []*model.Slot {
	var out []*model.Slot
	for _, s := range r.all() {
		if match(s) {
			out = append(out, copySlot(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byStart(a, b *model.Slot) bool { return a.StartTime.Before(b.StartTime) }
func byEnd(a, b *model.Slot) bool   { return a.EndTime.Before(b.EndTime) }

func (r *SlotRepository) first(match func(*model.Slot) bool) *model.Slot {
	for _, s := range r.all() {
		if match(s) {
			return copySlot(s)
		}
	}
	return nil
}

func (r *SlotRepository) GetByID(_ context.Context, id string) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.first(func(s *model.Slot) bool { return s.ID == id }), nil
}

func (r *SlotRepository) GetByStreamKey(_ context.Context, key string) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.first(func(s *model.Slot) bool { return s.StreamKey == key }), nil
}

func (r *SlotRepository) GetLive(context.Context) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.first(func(s *model.Slot) bool { return s.Status == model.SlotStatusLive }), nil
}

func (r *SlotRepository) ListWindow(_ context.Context, from, to time.Time) ([]*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(s *model.Slot) bool { return s.Overlaps(from, to) }, byStart), nil
}

func (r *SlotRepository) ListByDJ(_ context.Context, djID string, from, to time.Time) ([]*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(s *model.Slot) bool {
		return s.DJID == djID && !s.StartTime.Before(from) && s.StartTime.Before(to)
	}, byStart), nil
}

func (r *SlotRepository) ListExpired(_ context.Context, cutoff time.Time) ([]*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(s *model.Slot) bool {
		return s.Status.IsBlocking() && s.EndTime.Before(cutoff)
	}, byEnd), nil
}

// MarkLive flips a confirmed slot to live unless some slot already is.
func (r *SlotRepository) MarkLive(_ context.Context, id string, startedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok || s.Status != model.SlotStatusConfirmed {
		return false, nil
	}
	for _, other := range r.byID {
		if other.Status == model.SlotStatusLive {
			return false, nil
		}
	}
	s.Status = model.SlotStatusLive
	s.StartedAt = &startedAt
	s.UpdatedAt = time.Now()
	return true, nil
}

func (r *SlotRepository) Complete(ctx context.Context, id string, from model.SlotStatus, endedAt time.Time, credit model.DailyUsage) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok || s.Status != from {
		return false, nil
	}
	if r.usage != nil && credit.StreamMinutes > 0 {
		if err := r.usage.Add(ctx, credit.DJID, credit.Day, credit.StreamMinutes); err != nil {
			return false, err
		}
	}
	s.Status = model.SlotStatusCompleted
	s.EndedAt = &endedAt
	s.UpdatedAt = time.Now()
	return true, nil
}

func (r *SlotRepository) Cancel(_ context.Context, id string, from model.SlotStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = model.SlotStatusCancelled
	s.KeyActive = false
	s.EndedAt = &at
	s.UpdatedAt = time.Now()
	return true, nil
}

func (r *SlotRepository) SetHandedOverTo(_ context.Context, id, requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byID[id]; ok {
		s.HandedOverTo = &requesterID
		s.UpdatedAt = time.Now()
	}
	return nil
}

// Put stores or replaces a slot without any checks. Used to seed fixtures.
func (r *SlotRepository) Put(s *model.Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; !ok {
		r.order = append(r.order, s.ID)
	}
	r.byID[s.ID] = copySlot(s)
}
