package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dayLayout = "2006-01-02"

// UsageRepository keeps dj_daily_usage. Days are local calendar dates; the
// caller converts to the station timezone before passing them in.
type UsageRepository struct {
	*base.Repository
}

func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{Repository: base.NewRepository(pool)}
}

// Minutes returns the DJ's recorded minutes for day, 0 when there is no row.
func (r *UsageRepository) Minutes(ctx context.Context, djID string, day time.Time) (int, error) {
	query := `SELECT stream_minutes FROM dj_daily_usage WHERE dj_id = $1 AND day = $2::date`

	var minutes int
	err := r.QueryRow(ctx, query, djID, day.Format(dayLayout)).Scan(&minutes)
	if err != nil {
		if base.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get daily usage: %w", err)
	}
	return minutes, nil
}

// addUsageQuery increments a day's minutes, creating the row on first use.
// SlotRepository.Complete runs it inside the completing transaction.
const addUsageQuery = `
	INSERT INTO dj_daily_usage (dj_id, day, stream_minutes, updated_at)
	VALUES ($1, $2::date, $3, NOW())
	ON CONFLICT (dj_id, day)
	DO UPDATE SET stream_minutes = dj_daily_usage.stream_minutes + EXCLUDED.stream_minutes,
	              updated_at = NOW()
`
