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

const slotColumns = `
	id, dj_id, dj_name, stream_title, genre, start_time, end_time, duration,
	stream_key, key_active, status, instant, started_at, ended_at, handed_over_to,
	created_at, updated_at`

// SlotRepository persists livestream_slots. Overlap between blocking slots is
// rejected by an exclusion constraint and a second live slot by a partial
// unique index, so the checks hold even when two requests race.
type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var s model.Slot
	err := row.Scan(
		&s.ID,
		&s.DJID,
		&s.DJName,
		&s.StreamTitle,
		&s.Genre,
		&s.StartTime,
		&s.EndTime,
		&s.Duration,
		&s.StreamKey,
		&s.KeyActive,
		&s.Status,
		&s.Instant,
		&s.StartedAt,
		&s.EndedAt,
		&s.HandedOverTo,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlotRepository) queryOne(ctx context.Context, op, query string, args ...any) (*model.Slot, error) {
	s, err := scanSlot(r.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (r *SlotRepository) queryMany(ctx context.Context, op, query string, args ...any) ([]*model.Slot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slots, nil
}

// Create inserts slots in one transaction, all or none. Returns base.ErrConflict
// on overlap with a blocking slot and base.ErrDuplicate when inserting a second
// live slot.
func (r *SlotRepository) Create(ctx context.Context, slots ...*model.Slot) error {
	query := `
		INSERT INTO livestream_slots (
			id, dj_id, dj_name, stream_title, genre, start_time, end_time, duration,
			stream_key, key_active, status, instant, started_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, slot := range slots {
		err := tx.QueryRow(
			ctx, query,
			slot.ID,
			slot.DJID,
			slot.DJName,
			slot.StreamTitle,
			slot.Genre,
			slot.StartTime,
			slot.EndTime,
			slot.Duration,
			slot.StreamKey,
			slot.KeyActive,
			slot.Status,
			slot.Instant,
			slot.StartedAt,
		).Scan(&slot.CreatedAt, &slot.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create slot: %w", base.MapError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", base.MapError(err))
	}
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM livestream_slots WHERE id = $1`
	return r.queryOne(ctx, "get slot by id", query, id)
}

func (r *SlotRepository) GetByStreamKey(ctx context.Context, key string) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM livestream_slots WHERE stream_key = $1`
	return r.queryOne(ctx, "get slot by stream key", query, key)
}

// GetLive returns the single live slot, or nil.
func (r *SlotRepository) GetLive(ctx context.Context) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM livestream_slots WHERE status = 'live'`
	return r.queryOne(ctx, "get live slot", query)
}

// ListWindow returns every slot, any status, overlapping [from, to).
func (r *SlotRepository) ListWindow(ctx context.Context, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM livestream_slots
		WHERE start_time < $2 AND end_time > $1
		ORDER BY start_time
	`
	return r.queryMany(ctx, "list slots in window", query, from, to)
}

// ListByDJ returns the DJ's slots that start in [from, to).
func (r *SlotRepository) ListByDJ(ctx context.Context, djID string, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM livestream_slots
		WHERE dj_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time
	`
	return r.queryMany(ctx, "list slots by dj", query, djID, from, to)
}

// ListExpired returns confirmed or live slots that ended before cutoff.
func (r *SlotRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM livestream_slots
		WHERE status IN ('confirmed', 'live') AND end_time < $1
		ORDER BY end_time
	`
	return r.queryMany(ctx, "list expired slots", query, cutoff)
}

// MarkLive moves a confirmed slot to live when no other slot is live.
// Reports false when the precondition no longer holds; base.ErrDuplicate
// when another request won the race for the live index.
func (r *SlotRepository) MarkLive(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	query := `
		UPDATE livestream_slots
		SET status = 'live', started_at = $2, updated_at = NOW()
		WHERE id = $1
		  AND status = 'confirmed'
		  AND NOT EXISTS (SELECT 1 FROM livestream_slots WHERE status = 'live')
	`
	n, err := r.ExecAffected(ctx, query, id, startedAt)
	if err != nil {
		return false, fmt.Errorf("mark slot live: %w", err)
	}
	return n == 1, nil
}

// Complete moves a slot from the given status to completed and adds credit to
// the DJ's daily usage in one transaction.
func (r *SlotRepository) Complete(ctx context.Context, id string, from model.SlotStatus, endedAt time.Time, credit model.DailyUsage) (bool, error) {
	query := `
		UPDATE livestream_slots
		SET status = 'completed', ended_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, id, from, endedAt)
	if err != nil {
		return false, fmt.Errorf("complete slot: %w", base.MapError(err))
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	if credit.StreamMinutes > 0 {
		_, err = tx.Exec(ctx, addUsageQuery, credit.DJID, credit.Day.Format(dayLayout), credit.StreamMinutes)
		if err != nil {
			return false, fmt.Errorf("add daily usage: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return true, nil
}

// Cancel moves a slot from the given status to cancelled and deactivates its
// key in the same write.
func (r *SlotRepository) Cancel(ctx context.Context, id string, from model.SlotStatus, at time.Time) (bool, error) {
	query := `
		UPDATE livestream_slots
		SET status = 'cancelled', key_active = FALSE, ended_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	n, err := r.ExecAffected(ctx, query, id, from, at)
	if err != nil {
		return false, fmt.Errorf("cancel slot: %w", err)
	}
	return n == 1, nil
}

// SetHandedOverTo records the requester of an approved takeover on a live slot.
func (r *SlotRepository) SetHandedOverTo(ctx context.Context, id, requesterID string) error {
	query := `
		UPDATE livestream_slots
		SET handed_over_to = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.ExecAffected(ctx, query, id, requesterID); err != nil {
		return fmt.Errorf("set handed over: %w", err)
	}
	return nil
}
