package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/calendar"
	"github.com/DJCodeOne/freshwax-sub008/internal/config"
	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/streamkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	slotA = "a0000000-0000-4000-8000-000000000001"
	slotB = "b0000000-0000-4000-8000-000000000002"
)

var (
	djA = Caller{ID: "dj-a", Name: "Alpha"}
	djB = Caller{ID: "dj-b", Name: "Bravo"}
	djC = Caller{ID: "dj-c", Name: "Charlie"}

	admin = Caller{ID: "admin", Name: "Ops", Admin: true}
)

// londonAt returns hour:minute on Friday 16 October 2026, station time.
func londonAt(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return time.Date(2026, 10, 16, hour, minute, 0, 0, loc)
}

func book(h *harness, dj Caller, ranges ...calendar.Range) ([]*model.Slot, error) {
	return h.svc.Book(context.Background(), BookRequest{
		DJID:   dj.ID,
		DJName: dj.Name,
		Title:  dj.Name + " session",
		Ranges: ranges,
	})
}

func hours(h *harness, from, to int) calendar.Range {
	return calendar.Range{Start: h.at(from, 0), End: h.at(to, 0)}
}

func TestBook_createsConfirmedSlotsWithSignedKeys(t *testing.T) {
	h := newHarness(t, londonAt(t, 8, 0))

	slots, err := book(h, djA, hours(h, 9, 10), hours(h, 14, 15))
	require.NoError(t, err)
	require.Len(t, slots, 2)

	for _, slot := range slots {
		assert.Equal(t, model.SlotStatusConfirmed, slot.Status)
		assert.True(t, slot.KeyActive)
		assert.Equal(t, 60, slot.Duration)
		assert.True(t, streamkey.IsSigned(slot.StreamKey))
		assert.True(t, h.keys.Verify(slot.StreamKey, slot.DJID, slot.ID, slot.StartTime, slot.EndTime))
	}
	assert.NotEqual(t, slots[0].StreamKey, slots[1].StreamKey)

	dj, err := h.djs.GetByID(context.Background(), djA.ID)
	require.NoError(t, err)
	require.NotNil(t, dj)
	assert.Equal(t, "Alpha", dj.Name)
}

func TestBook_dailyLimit(t *testing.T) {
	h := newHarness(t, londonAt(t, 8, 0))

	_, err := book(h, djA, hours(h, 9, 10))
	require.NoError(t, err)

	_, err = book(h, djA, hours(h, 14, 16))
	assert.ErrorIs(t, err, ErrDailyLimitExceeded)

	// nothing from the rejected booking was stored
	slots, err := h.svc.ListForDJ(context.Background(), djA.ID, h.at(0, 0), h.at(23, 59))
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestBook_dailyLimitCountsRecordedUsage(t *testing.T) {
	h := newHarness(t, londonAt(t, 8, 0))
	require.NoError(t, h.usage.Add(context.Background(), djA.ID, h.svc.dayOf(h.now), 90))

	_, err := book(h, djA, hours(h, 12, 13))
	assert.ErrorIs(t, err, ErrDailyLimitExceeded)

	_, err = book(h, djB, hours(h, 12, 13))
	assert.NoError(t, err)
}

func TestBook_cancelledSlotsFreeTheDay(t *testing.T) {
	h := newHarness(t, londonAt(t, 8, 0))

	slots, err := book(h, djA, hours(h, 9, 11))
	require.NoError(t, err)
	_, err = h.svc.CancelBooking(context.Background(), djA, slots[0].ID)
	require.NoError(t, err)

	_, err = book(h, djA, hours(h, 14, 16))
	assert.NoError(t, err)
}

func TestBook_conflict(t *testing.T) {
	h := newHarness(t, londonAt(t, 8, 0))

	_, err := book(h, djA, hours(h, 9, 10))
	require.NoError(t, err)

	_, err = book(h, djB, calendar.Range{Start: h.at(9, 30), End: h.at(10, 30)})
	assert.ErrorIs(t, err, ErrSlotConflict)

	// half-open intervals: touching is not overlapping
	_, err = book(h, djB, hours(h, 10, 11))
	assert.NoError(t, err)
}

func TestBook_weeklyLimit(t *testing.T) {
	settings := config.DefaultSettings()
	settings.WeeklySlots = 2
	h := newHarnessWith(t, londonAt(t, 8, 0), settings)

	friday := hours(h, 10, 11)
	saturday := calendar.Range{Start: friday.Start.AddDate(0, 0, 1), End: friday.End.AddDate(0, 0, 1)}
	sunday := calendar.Range{Start: friday.Start.AddDate(0, 0, 2), End: friday.End.AddDate(0, 0, 2)}
	monday := calendar.Range{Start: friday.Start.AddDate(0, 0, 3), End: friday.End.AddDate(0, 0, 3)}

	_, err := book(h, djA, friday)
	require.NoError(t, err)
	_, err = book(h, djA, saturday)
	require.NoError(t, err)

	_, err = book(h, djA, sunday)
	assert.ErrorIs(t, err, ErrWeeklyLimitExceeded)

	// Monday starts a new week
	_, err = book(h, djA, monday)
	assert.NoError(t, err)
}

func TestBook_invalidSelection(t *testing.T) {
	h := newHarness(t, londonAt(t, 12, 30))

	tests := []struct {
		name   string
		ranges []calendar.Range
	}{
		{name: "empty", ranges: nil},
		{name: "already started", ranges: []calendar.Range{hours(h, 12, 13)}},
		{name: "end before start", ranges: []calendar.Range{{Start: h.at(15, 0), End: h.at(14, 0)}}},
		{name: "self overlap", ranges: []calendar.Range{hours(h, 14, 16), hours(h, 15, 17)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := book(h, djA, tt.ranges...)
			assert.ErrorIs(t, err, ErrInvalidSelection)
		})
	}
}

func TestGoLive_scheduled(t *testing.T) {
	h := newHarness(t, londonAt(t, 19, 50))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	slot, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusLive, slot.Status)
	require.NotNil(t, slot.StartedAt)
	assert.True(t, slot.StartedAt.Equal(h.now))

	assert.Equal(t, model.SlotStatusLive, h.slot(slotA).Status)
	assert.Equal(t, 1, h.prober.calls)
	// a failing push channel does not fail go-live
	assert.Len(t, h.notifier.live, 1)

	current, err := h.svc.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, slotA, current.ID)
}

func TestGoLive_idempotentForOwner(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)

	slot, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusLive, slot.Status)
	assert.Equal(t, 1, h.prober.calls)
}

func TestGoLive_probeFailureIsIgnored(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	h.prober.err = assert.AnError
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	slot, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusLive, slot.Status)
}

func TestGoLive_scheduledRejections(t *testing.T) {
	tests := []struct {
		name    string
		now     func(t *testing.T) time.Time
		caller  Caller
		mutate  func(s *config.Settings)
		slotID  string
		wantErr error
	}{
		{
			name:    "before reveal window",
			now:     func(t *testing.T) time.Time { return londonAt(t, 19, 40) },
			caller:  djA,
			slotID:  slotA,
			wantErr: ErrKeyNotActive,
		},
		{
			name:    "after grace",
			now:     func(t *testing.T) time.Time { return londonAt(t, 21, 6) },
			caller:  djA,
			slotID:  slotA,
			wantErr: ErrKeyNotActive,
		},
		{
			name:    "not the owner",
			now:     func(t *testing.T) time.Time { return londonAt(t, 20, 0) },
			caller:  djB,
			slotID:  slotA,
			wantErr: ErrUnauthorized,
		},
		{
			name:    "late start disabled",
			now:     func(t *testing.T) time.Time { return londonAt(t, 20, 10) },
			caller:  djA,
			mutate:  func(s *config.Settings) { s.AllowGoLiveAfter = false },
			slotID:  slotA,
			wantErr: ErrGoLiveDisabled,
		},
		{
			name:    "unknown slot",
			now:     func(t *testing.T) time.Time { return londonAt(t, 20, 0) },
			caller:  djA,
			slotID:  slotB,
			wantErr: ErrNotFound,
		},
		{
			name:    "malformed id",
			now:     func(t *testing.T) time.Time { return londonAt(t, 20, 0) },
			caller:  djA,
			slotID:  "not-a-uuid",
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := config.DefaultSettings()
			if tt.mutate != nil {
				tt.mutate(&settings)
			}
			h := newHarnessWith(t, tt.now(t), settings)
			h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

			_, err := h.svc.GoLive(context.Background(), tt.caller, GoLiveRequest{SlotID: tt.slotID})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, model.SlotStatusConfirmed, h.slot(slotA).Status)
		})
	}
}

func TestGoLive_cancelledSlot(t *testing.T) {
	h := newHarness(t, londonAt(t, 19, 0))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	_, err := h.svc.CancelBooking(context.Background(), djA, slotA)
	require.NoError(t, err)

	h.advance(time.Hour)
	_, err = h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGoLive_onlyOneLiveSlot(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 50))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))
	h.seedSlot(slotB, djB.ID, h.at(21, 0), h.at(22, 0))

	_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)

	_, err = h.svc.GoLive(context.Background(), djB, GoLiveRequest{SlotID: slotB})
	assert.ErrorIs(t, err, ErrAlreadyLive)
}

func TestGoLive_concurrentCallersRace(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 50))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))
	h.seedSlot(slotB, djB.ID, h.at(21, 0), h.at(22, 0))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, c := range []struct {
		caller Caller
		slotID string
	}{{djA, slotA}, {djB, slotB}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.svc.GoLive(context.Background(), c.caller, GoLiveRequest{SlotID: c.slotID})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyLive)
	}
	assert.Equal(t, 1, succeeded)

	live := 0
	for _, id := range []string{slotA, slotB} {
		if h.slot(id).Status == model.SlotStatusLive {
			live++
		}
	}
	assert.Equal(t, 1, live)
}

func TestGoLive_instant(t *testing.T) {
	h := newHarness(t, londonAt(t, 19, 20))

	slot, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{Title: "Warehouse set"})
	require.NoError(t, err)

	assert.True(t, slot.Instant)
	assert.Equal(t, model.SlotStatusLive, slot.Status)
	assert.True(t, slot.EndTime.Equal(h.at(20, 0)))
	assert.Equal(t, 40, slot.Duration)
	assert.Equal(t, "Warehouse set", slot.StreamTitle)
	assert.True(t, h.keys.Verify(slot.StreamKey, djA.ID, slot.ID, slot.StartTime, slot.EndTime))

	_, err = h.svc.GoLive(context.Background(), djB, GoLiveRequest{})
	assert.ErrorIs(t, err, ErrAlreadyLive)
}

func TestGoLive_instantRejections(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		settings := config.DefaultSettings()
		settings.AllowGoLiveNow = false
		h := newHarnessWith(t, londonAt(t, 19, 20), settings)

		_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{})
		assert.ErrorIs(t, err, ErrGoLiveDisabled)
	})

	t.Run("booked hour ahead", func(t *testing.T) {
		h := newHarness(t, londonAt(t, 19, 20))
		h.seedSlot(slotB, djB.ID, h.at(19, 30), h.at(20, 30))

		_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{})
		assert.ErrorIs(t, err, ErrSlotConflict)
	})

	t.Run("daily cap", func(t *testing.T) {
		h := newHarness(t, londonAt(t, 19, 20))
		require.NoError(t, h.usage.Add(context.Background(), djA.ID, h.svc.dayOf(h.now), 100))

		_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{})
		assert.ErrorIs(t, err, ErrDailyLimitExceeded)
	})
}

func TestEndStream(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)

	h.advance(45*time.Minute + 30*time.Second)
	slot, err := h.svc.EndStream(context.Background(), djA, slotA)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCompleted, slot.Status)
	require.NotNil(t, slot.EndedAt)

	minutes, err := h.usage.Minutes(context.Background(), djA.ID, h.svc.dayOf(h.now))
	require.NoError(t, err)
	assert.Equal(t, 46, minutes)

	// ending twice is a no-op
	h.advance(time.Minute)
	slot, err = h.svc.EndStream(context.Background(), djA, slotA)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCompleted, slot.Status)

	minutes, err = h.usage.Minutes(context.Background(), djA.ID, h.svc.dayOf(h.now))
	require.NoError(t, err)
	assert.Equal(t, 46, minutes)

	current, err := h.svc.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

// failingCompleteStore fails every Complete before touching the store.
type failingCompleteStore struct {
	SlotStore
	fail bool
}

func (s *failingCompleteStore) Complete(ctx context.Context, id string, from model.SlotStatus, endedAt time.Time, credit model.DailyUsage) (bool, error) {
	if s.fail {
		return false, errors.New("connection reset")
	}
	return s.SlotStore.Complete(ctx, id, from, endedAt, credit)
}

func TestEndStream_failedWriteCanBeRetried(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))
	_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)

	store := &failingCompleteStore{SlotStore: h.slots, fail: true}
	h.svc.slots = store

	h.advance(30 * time.Minute)
	_, err = h.svc.EndStream(context.Background(), djA, slotA)
	require.Error(t, err)
	assert.Equal(t, model.SlotStatusLive, h.slot(slotA).Status)

	minutes, err := h.usage.Minutes(context.Background(), djA.ID, h.svc.dayOf(h.now))
	require.NoError(t, err)
	assert.Zero(t, minutes)

	store.fail = false
	slot, err := h.svc.EndStream(context.Background(), djA, slotA)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCompleted, slot.Status)

	minutes, err = h.usage.Minutes(context.Background(), djA.ID, h.svc.dayOf(h.now))
	require.NoError(t, err)
	assert.Equal(t, 30, minutes)
}

func TestEndStream_permissions(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))
	_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)

	_, err = h.svc.EndStream(context.Background(), djB, slotA)
	assert.ErrorIs(t, err, ErrUnauthorized)

	slot, err := h.svc.EndStream(context.Background(), admin, slotA)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCompleted, slot.Status)
}

func TestEndStream_notLive(t *testing.T) {
	h := newHarness(t, londonAt(t, 19, 0))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	_, err := h.svc.EndStream(context.Background(), djA, slotA)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelBooking(t *testing.T) {
	h := newHarness(t, londonAt(t, 19, 50))
	slot := h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	_, err := h.svc.ValidateKey(context.Background(), slot.StreamKey)
	require.NoError(t, err)

	_, err = h.svc.CancelBooking(context.Background(), djB, slotA)
	assert.ErrorIs(t, err, ErrUnauthorized)

	cancelled, err := h.svc.CancelBooking(context.Background(), djA, slotA)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCancelled, cancelled.Status)
	assert.False(t, cancelled.KeyActive)

	// the window is still open but the key is dead
	_, err = h.svc.ValidateKey(context.Background(), slot.StreamKey)
	assert.ErrorIs(t, err, ErrKeyNotActive)
	_, err = h.svc.Credentials(context.Background(), djA, slotA)
	assert.ErrorIs(t, err, ErrKeyNotActive)

	_, err = h.svc.CancelBooking(context.Background(), djA, slotA)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelBooking_liveSlotNeedsAdmin(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))
	_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)

	_, err = h.svc.CancelBooking(context.Background(), djA, slotA)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	slot, err := h.svc.CancelBooking(context.Background(), admin, slotA)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCancelled, slot.Status)

	current, err := h.svc.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestExpirySweep_graceBoundary(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	slot := h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))
	_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)

	h.now = h.at(21, 4)
	_, err = h.svc.ValidateKey(context.Background(), slot.StreamKey)
	require.NoError(t, err)

	n, err := h.svc.ExpirySweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	h.now = h.at(21, 6)
	_, err = h.svc.ValidateKey(context.Background(), slot.StreamKey)
	assert.ErrorIs(t, err, ErrKeyNotActive)

	n, err = h.svc.ExpirySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.SlotStatusCompleted, h.slot(slotA).Status)

	minutes, err := h.usage.Minutes(context.Background(), djA.ID, h.svc.dayOf(slot.StartTime))
	require.NoError(t, err)
	assert.Equal(t, 60, minutes)
}

func TestExpirySweep_slotThatNeverWentLive(t *testing.T) {
	h := newHarness(t, londonAt(t, 22, 0))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	res, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.SlotsCompleted)
	assert.Equal(t, model.SlotStatusCompleted, h.slot(slotA).Status)
}

func TestCurrent_expiresOverdueLiveSlot(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))
	_, err := h.svc.GoLive(context.Background(), djA, GoLiveRequest{SlotID: slotA})
	require.NoError(t, err)

	h.now = h.at(21, 10)
	current, err := h.svc.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Equal(t, model.SlotStatusCompleted, h.slot(slotA).Status)
}

func TestCredentials(t *testing.T) {
	h := newHarness(t, londonAt(t, 19, 50))
	slot := h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	creds, err := h.svc.Credentials(context.Background(), djA, slotA)
	require.NoError(t, err)
	assert.Equal(t, testServerURL, creds.ServerURL)
	assert.Equal(t, slot.StreamKey, creds.StreamKey)

	_, err = h.svc.Credentials(context.Background(), djB, slotA)
	assert.ErrorIs(t, err, ErrUnauthorized)

	h.now = h.at(19, 30)
	_, err = h.svc.Credentials(context.Background(), djA, slotA)
	assert.ErrorIs(t, err, ErrKeyNotActive)
}

func TestValidateKey_djIDWithUnderscore(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	slot := h.seedSlot(slotA, "dj_alpha", h.at(20, 0), h.at(21, 0))
	require.True(t, streamkey.IsSigned(slot.StreamKey))

	got, err := h.svc.ValidateKey(context.Background(), slot.StreamKey)
	require.NoError(t, err)
	assert.Equal(t, slotA, got.ID)

	h.now = h.at(21, 6)
	_, err = h.svc.ValidateKey(context.Background(), slot.StreamKey)
	assert.ErrorIs(t, err, ErrKeyNotActive)
}

func TestValidateKey_rejectsForeignKeys(t *testing.T) {
	h := newHarness(t, londonAt(t, 20, 0))
	slot := h.seedSlot(slotA, djA.ID, h.at(20, 0), h.at(21, 0))

	_, err := h.svc.ValidateKey(context.Background(), "random-string")
	assert.ErrorIs(t, err, ErrKeyNotActive)

	forged := slot.StreamKey[:len(slot.StreamKey)-1] + "x"
	_, err = h.svc.ValidateKey(context.Background(), forged)
	assert.ErrorIs(t, err, ErrNotFound)

	other, err := streamkey.NewGenerator("someone-else")
	require.NoError(t, err)
	h.seedSlot(slotB, djB.ID, h.at(22, 0), h.at(23, 0))
	wrongSecret := h.slot(slotB)
	wrongSecret.StreamKey = other.Generate(djB.ID, slotB, wrongSecret.StartTime, wrongSecret.EndTime)
	h.slots.Put(wrongSecret)

	_, err = h.svc.ValidateKey(context.Background(), wrongSecret.StreamKey)
	assert.ErrorIs(t, err, ErrKeyNotActive)
}

func TestListWindow(t *testing.T) {
	h := newHarness(t, londonAt(t, 8, 0))
	_, err := book(h, djA, hours(h, 9, 10))
	require.NoError(t, err)
	_, err = book(h, djB, hours(h, 12, 13))
	require.NoError(t, err)

	slots, err := h.svc.ListWindow(context.Background(), h.at(9, 30), h.at(12, 30))
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	_, err = h.svc.ListWindow(context.Background(), h.at(12, 0), h.at(9, 0))
	assert.ErrorIs(t, err, ErrInvalidSelection)
}
