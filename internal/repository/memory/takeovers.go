package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/repository/base"
)

// TakeoverRepository allows one pending request per requester and target.
type TakeoverRepository struct {
	mu   sync.Mutex
	rows []*model.TakeoverRequest
}

func NewTakeoverRepository() *TakeoverRepository {
	return &TakeoverRepository{}
}

func copyRequest(r *model.TakeoverRequest) *model.TakeoverRequest {
	cp := *r
	return &cp
}

func (r *TakeoverRepository) Create(_ context.Context, req *model.TakeoverRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.IsPending() && row.RequesterID == req.RequesterID && row.TargetDJID == req.TargetDJID {
			return fmt.Errorf("create takeover request: %w", base.ErrDuplicate)
		}
	}
	r.rows = append(r.rows, copyRequest(req))
	return nil
}

func (r *TakeoverRepository) GetLatest(_ context.Context, requesterID, targetDJID string) (*model.TakeoverRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.rows) - 1; i >= 0; i-- {
		row := r.rows[i]
		if row.RequesterID == requesterID && row.TargetDJID == targetDJID {
			return copyRequest(row), nil
		}
	}
	return nil, nil
}

func (r *TakeoverRepository) CountForSlot(_ context.Context, requesterID, slotID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.RequesterID == requesterID && row.SlotID == slotID {
			n++
		}
	}
	return n, nil
}

func (r *TakeoverRepository) Resolve(_ context.Context, id string, status model.TakeoverStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id && row.IsPending() {
			row.Status = status
			row.ResolvedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (r *TakeoverRepository) ListPendingForTarget(_ context.Context, targetDJID string) ([]*model.TakeoverRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.TakeoverRequest
	for _, row := range r.rows {
		if row.TargetDJID == targetDJID && row.IsPending() {
			out = append(out, copyRequest(row))
		}
	}
	return out, nil
}

// ListForRequester returns newest first.
func (r *TakeoverRepository) ListForRequester(_ context.Context, requesterID string, limit int) ([]*model.TakeoverRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.TakeoverRequest
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].RequesterID == requesterID {
			out = append(out, copyRequest(r.rows[i]))
		}
	}
	return out, nil
}

func (r *TakeoverRepository) ExpirePending(_ context.Context, cutoff, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.IsPending() && row.CreatedAt.Before(cutoff) {
			row.Status = model.TakeoverStatusExpired
			row.ResolvedAt = &at
			n++
		}
	}
	return n, nil
}
