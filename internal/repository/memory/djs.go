package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
)

type DJRepository struct {
	mu   sync.Mutex
	byID map[string]*model.DJ
}

func NewDJRepository() *DJRepository {
	return &DJRepository{byID: make(map[string]*model.DJ)}
}

// Upsert inserts the DJ or refreshes its name, filling in the stored fields.
func (r *DJRepository) Upsert(_ context.Context, dj *model.DJ) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[dj.ID]
	if !ok {
		existing = &model.DJ{ID: dj.ID, IsAdmin: dj.IsAdmin, CreatedAt: time.Now()}
		r.byID[dj.ID] = existing
	}
	if dj.Name != "" {
		existing.Name = dj.Name
	}
	*dj = *existing
	return nil
}

func (r *DJRepository) GetByID(_ context.Context, id string) (*model.DJ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dj, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *dj
	return &cp, nil
}

func (r *DJRepository) GetByTelegramID(_ context.Context, telegramID int64) (*model.DJ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dj := range r.byID {
		if dj.TelegramID != nil && *dj.TelegramID == telegramID {
			cp := *dj
			return &cp, nil
		}
	}
	return nil, nil
}

// LinkTelegram binds telegramID to the DJ, unlinking any other DJ that had it.
func (r *DJRepository) LinkTelegram(_ context.Context, id string, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dj := range r.byID {
		if dj.TelegramID != nil && *dj.TelegramID == telegramID {
			dj.TelegramID = nil
		}
	}
	dj, ok := r.byID[id]
	if !ok {
		dj = &model.DJ{ID: id, CreatedAt: time.Now()}
		r.byID[id] = dj
	}
	tg := telegramID
	dj.TelegramID = &tg
	return nil
}
