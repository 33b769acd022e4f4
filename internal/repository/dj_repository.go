package repository

import (
	"context"
	"fmt"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DJRepository struct {
	pool *pgxpool.Pool
}

func NewDJRepository(pool *pgxpool.Pool) *DJRepository {
	return &DJRepository{pool: pool}
}

// Upsert creates the DJ or refreshes the display name. Admin flag and the
// Telegram link are never touched here.
func (r *DJRepository) Upsert(ctx context.Context, dj *model.DJ) error {
	query := `
		INSERT INTO djs (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = COALESCE(NULLIF(EXCLUDED.name, ''), djs.name)
		RETURNING telegram_id, is_admin, created_at
	`

	err := r.pool.QueryRow(ctx, query, dj.ID, dj.Name).Scan(&dj.TelegramID, &dj.IsAdmin, &dj.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert dj: %w", err)
	}
	return nil
}

func (r *DJRepository) GetByID(ctx context.Context, id string) (*model.DJ, error) {
	query := `SELECT id, name, telegram_id, is_admin, created_at FROM djs WHERE id = $1`
	return r.getOne(ctx, "get dj by id", query, id)
}

func (r *DJRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.DJ, error) {
	query := `SELECT id, name, telegram_id, is_admin, created_at FROM djs WHERE telegram_id = $1`
	return r.getOne(ctx, "get dj by telegram id", query, telegramID)
}

func (r *DJRepository) getOne(ctx context.Context, op, query string, arg any) (*model.DJ, error) {
	var dj model.DJ
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&dj.ID,
		&dj.Name,
		&dj.TelegramID,
		&dj.IsAdmin,
		&dj.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &dj, nil
}

// LinkTelegram binds a Telegram account to the DJ, moving it off any DJ that had it.
func (r *DJRepository) LinkTelegram(ctx context.Context, id string, telegramID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE djs SET telegram_id = NULL WHERE telegram_id = $1 AND id <> $2`, telegramID, id); err != nil {
		return fmt.Errorf("unlink telegram: %w", err)
	}

	result, err := tx.Exec(ctx, `UPDATE djs SET telegram_id = $1 WHERE id = $2`, telegramID, id)
	if err != nil {
		return fmt.Errorf("link telegram: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("dj not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
