package service

import (
	"context"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
)

// SlotStore is implemented by repository.SlotRepository. Conditional writes
// report false when the row was not in the expected status.
type SlotStore interface {
	Create(ctx context.Context, slots ...*model.Slot) error
	GetByID(ctx context.Context, id string) (*model.Slot, error)
	GetByStreamKey(ctx context.Context, key string) (*model.Slot, error)
	GetLive(ctx context.Context) (*model.Slot, error)
	ListWindow(ctx context.Context, from, to time.Time) ([]*model.Slot, error)
	ListByDJ(ctx context.Context, djID string, from, to time.Time) ([]*model.Slot, error)
	ListExpired(ctx context.Context, cutoff time.Time) ([]*model.Slot, error)
	MarkLive(ctx context.Context, id string, startedAt time.Time) (bool, error)
	// Complete also credits the usage record in the same write, so a slot is
	// never completed without its minutes or credited twice.
	Complete(ctx context.Context, id string, from model.SlotStatus, endedAt time.Time, credit model.DailyUsage) (bool, error)
	Cancel(ctx context.Context, id string, from model.SlotStatus, at time.Time) (bool, error)
	SetHandedOverTo(ctx context.Context, id, requesterID string) error
}

type UsageStore interface {
	Minutes(ctx context.Context, djID string, day time.Time) (int, error)
}

type DJStore interface {
	Upsert(ctx context.Context, dj *model.DJ) error
	GetByID(ctx context.Context, id string) (*model.DJ, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.DJ, error)
	LinkTelegram(ctx context.Context, id string, telegramID int64) error
}

type TakeoverStore interface {
	Create(ctx context.Context, req *model.TakeoverRequest) error
	GetLatest(ctx context.Context, requesterID, targetDJID string) (*model.TakeoverRequest, error)
	CountForSlot(ctx context.Context, requesterID, slotID string) (int, error)
	Resolve(ctx context.Context, id string, status model.TakeoverStatus, at time.Time) (bool, error)
	ListPendingForTarget(ctx context.Context, targetDJID string) ([]*model.TakeoverRequest, error)
	ListForRequester(ctx context.Context, requesterID string, limit int) ([]*model.TakeoverRequest, error)
	ExpirePending(ctx context.Context, cutoff, at time.Time) (int64, error)
}

// Prober checks that the ingest server is actually publishing a stream key.
type Prober interface {
	Probe(ctx context.Context, streamKey string) error
}

// Caller is the authenticated DJ performing an operation.
type Caller struct {
	ID    string
	Name  string
	Admin bool
}

func (c Caller) canManage(slot *model.Slot) bool {
	return c.Admin || slot.DJID == c.ID
}
