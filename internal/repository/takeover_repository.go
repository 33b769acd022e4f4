package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const takeoverColumns = `
	id, slot_id, requester_id, requester_name, target_dj_id, target_dj_name,
	status, created_at, resolved_at`

type TakeoverRepository struct {
	*base.Repository
}

func NewTakeoverRepository(pool *pgxpool.Pool) *TakeoverRepository {
	return &TakeoverRepository{Repository: base.NewRepository(pool)}
}

func scanTakeover(row pgx.Row) (*model.TakeoverRequest, error) {
	var req model.TakeoverRequest
	err := row.Scan(
		&req.ID,
		&req.SlotID,
		&req.RequesterID,
		&req.RequesterName,
		&req.TargetDJID,
		&req.TargetDJName,
		&req.Status,
		&req.CreatedAt,
		&req.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *TakeoverRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.TakeoverRequest, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var requests []*model.TakeoverRequest
	for rows.Next() {
		req, err := scanTakeover(rows)
		if err != nil {
			return nil, fmt.Errorf("scan takeover request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return requests, nil
}

// Create inserts a pending request. Returns base.ErrDuplicate when the pair
// already has a pending request.
func (r *TakeoverRepository) Create(ctx context.Context, req *model.TakeoverRequest) error {
	query := `
		INSERT INTO takeover_requests (
			id, slot_id, requester_id, requester_name, target_dj_id, target_dj_name, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.ExecAffected(
		ctx, query,
		req.ID,
		req.SlotID,
		req.RequesterID,
		req.RequesterName,
		req.TargetDJID,
		req.TargetDJName,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create takeover request: %w", err)
	}
	return nil
}

// GetLatest returns the newest request from requester to target, any status.
// A pending request, if one exists, is always the newest.
func (r *TakeoverRepository) GetLatest(ctx context.Context, requesterID, targetDJID string) (*model.TakeoverRequest, error) {
	query := `
		SELECT ` + takeoverColumns + `
		FROM takeover_requests
		WHERE requester_id = $1 AND target_dj_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	req, err := scanTakeover(r.QueryRow(ctx, query, requesterID, targetDJID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest takeover request: %w", err)
	}
	return req, nil
}

// CountForSlot counts requests of any status a requester made against one live slot.
func (r *TakeoverRepository) CountForSlot(ctx context.Context, requesterID, slotID string) (int, error) {
	query := `SELECT COUNT(*) FROM takeover_requests WHERE requester_id = $1 AND slot_id = $2`

	var n int
	if err := r.QueryRow(ctx, query, requesterID, slotID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count takeover requests: %w", err)
	}
	return n, nil
}

// Resolve moves a pending request to status. Reports false if it was no longer pending.
func (r *TakeoverRepository) Resolve(ctx context.Context, id string, status model.TakeoverStatus, at time.Time) (bool, error) {
	query := `
		UPDATE takeover_requests
		SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = 'pending'
	`
	n, err := r.ExecAffected(ctx, query, id, status, at)
	if err != nil {
		return false, fmt.Errorf("resolve takeover request: %w", err)
	}
	return n == 1, nil
}

func (r *TakeoverRepository) ListPendingForTarget(ctx context.Context, targetDJID string) ([]*model.TakeoverRequest, error) {
	query := `
		SELECT ` + takeoverColumns + `
		FROM takeover_requests
		WHERE target_dj_id = $1 AND status = 'pending'
		ORDER BY created_at ASC
	`
	return r.list(ctx, "list pending takeover requests", query, targetDJID)
}

func (r *TakeoverRepository) ListForRequester(ctx context.Context, requesterID string, limit int) ([]*model.TakeoverRequest, error) {
	query := `
		SELECT ` + takeoverColumns + `
		FROM takeover_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, "list takeover requests by requester", query, requesterID, limit)
}

// ExpirePending marks every pending request created before cutoff as expired.
func (r *TakeoverRepository) ExpirePending(ctx context.Context, cutoff, at time.Time) (int64, error) {
	query := `
		UPDATE takeover_requests
		SET status = 'expired', resolved_at = $2
		WHERE status = 'pending' AND created_at < $1
	`
	n, err := r.ExecAffected(ctx, query, cutoff, at)
	if err != nil {
		return 0, fmt.Errorf("expire takeover requests: %w", err)
	}
	return n, nil
}
