package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/cache"
	"github.com/DJCodeOne/freshwax-sub008/internal/calendar"
	"github.com/DJCodeOne/freshwax-sub008/internal/config"
	"github.com/DJCodeOne/freshwax-sub008/internal/metrics"
	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/notify"
	"github.com/DJCodeOne/freshwax-sub008/internal/repository/base"
	"github.com/DJCodeOne/freshwax-sub008/internal/streamkey"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotDeps groups the collaborators of SlotService.
type SlotDeps struct {
	Slots     SlotStore
	Usage     UsageStore
	DJs       DJStore
	Cache     cache.LiveCache
	Notifier  notify.Notifier
	Prober    Prober
	Keys      *streamkey.Generator
	Metrics   *metrics.Metrics
	Location  *time.Location
	ServerURL string
}

// SlotService drives a slot through confirmed -> live -> completed and keeps
// the daily usage ledger.
type SlotService struct {
	slots     SlotStore
	usage     UsageStore
	djs       DJStore
	cache     cache.LiveCache
	notifier  notify.Notifier
	prober    Prober
	keys      *streamkey.Generator
	metrics   *metrics.Metrics
	loc       *time.Location
	serverURL string
	settings  config.Settings
	window    streamkey.Window
	logger    *zap.Logger
	now       func() time.Time
}

func NewSlotService(deps SlotDeps, settings config.Settings, logger *zap.Logger) *SlotService {
	s := &SlotService{
		slots:     deps.Slots,
		usage:     deps.Usage,
		djs:       deps.DJs,
		cache:     deps.Cache,
		notifier:  deps.Notifier,
		prober:    deps.Prober,
		keys:      deps.Keys,
		metrics:   deps.Metrics,
		loc:       deps.Location,
		serverURL: deps.ServerURL,
		settings:  settings,
		window:    streamkey.Window{Reveal: settings.StreamKeyReveal, Grace: settings.GracePeriod},
		logger:    logger,
		now:       time.Now,
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

func (s *SlotService) Location() *time.Location {
	return s.loc
}

func (s *SlotService) Settings() config.Settings {
	return s.settings
}

// Now is the service clock, exposed so the calendar classifies against the same instant.
func (s *SlotService) Now() time.Time {
	return s.now()
}

// BookRequest is a booking for one DJ covering one or more intervals.
type BookRequest struct {
	DJID   string
	DJName string
	Title  string
	Genre  string
	Ranges []calendar.Range
}

// Book creates one confirmed slot per range. Overlap, the daily cap and the
// weekly cap are checked against the store, never trusted from the client.
func (s *SlotService) Book(ctx context.Context, req BookRequest) ([]*model.Slot, error) {
	now := s.now()

	ranges, err := s.validateRanges(req, now)
	if err != nil {
		s.metrics.Booking("invalid", 0)
		return nil, err
	}

	if err := s.checkDailyCap(ctx, req.DJID, ranges); err != nil {
		s.metrics.Booking("daily_limit", 0)
		return nil, err
	}
	if err := s.checkWeeklyCap(ctx, req.DJID, ranges); err != nil {
		s.metrics.Booking("weekly_limit", 0)
		return nil, err
	}
	if err := s.checkOverlap(ctx, ranges[0].Start, ranges[len(ranges)-1].End, ranges); err != nil {
		s.metrics.Booking("conflict", 0)
		return nil, err
	}

	if err := s.djs.Upsert(ctx, &model.DJ{ID: req.DJID, Name: req.DJName}); err != nil {
		return nil, fmt.Errorf("upsert dj: %w", err)
	}

	slots := make([]*model.Slot, 0, len(ranges))
	for _, r := range ranges {
		slots = append(slots, s.newSlot(req.DJID, req.DJName, req.Title, req.Genre, r.Start, r.End))
	}

	if err := s.slots.Create(ctx, slots...); err != nil {
		if errors.Is(err, base.ErrConflict) {
			s.metrics.Booking("conflict", 0)
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("create slots: %w", err)
	}

	s.metrics.Booking("ok", len(slots))
	for _, slot := range slots {
		s.logger.Info("Slot booked",
			zap.String("slot_id", slot.ID),
			zap.String("dj_id", slot.DJID),
			zap.Time("start", slot.StartTime),
			zap.Time("end", slot.EndTime),
		)
	}
	return slots, nil
}

func (s *SlotService) newSlot(djID, djName, title, genre string, start, end time.Time) *model.Slot {
	id := uuid.NewString()
	return &model.Slot{
		ID:          id,
		DJID:        djID,
		DJName:      djName,
		StreamTitle: title,
		Genre:       genre,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
		Duration:    ceilMinutes(end.Sub(start)),
		StreamKey:   s.keys.Generate(djID, id, start, end),
		KeyActive:   true,
		Status:      model.SlotStatusConfirmed,
	}
}

// validateRanges sorts the ranges and rejects empty, past, or self-overlapping input.
func (s *SlotService) validateRanges(req BookRequest, now time.Time) ([]calendar.Range, error) {
	if req.DJID == "" {
		return nil, fmt.Errorf("%w: missing DJ", ErrInvalidSelection)
	}
	if len(req.Ranges) == 0 {
		return nil, fmt.Errorf("%w: no hours selected", ErrInvalidSelection)
	}

	ranges := append([]calendar.Range(nil), req.Ranges...)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start.Before(ranges[j].Start) })

	for i, r := range ranges {
		if !r.End.After(r.Start) {
			return nil, fmt.Errorf("%w: end must be after start", ErrInvalidSelection)
		}
		if r.Start.Before(now) {
			return nil, fmt.Errorf("%w: that hour has already started", ErrInvalidSelection)
		}
		if i > 0 && ranges[i-1].End.After(r.Start) {
			return nil, fmt.Errorf("%w: selected hours overlap", ErrInvalidSelection)
		}
	}
	return ranges, nil
}

// checkDailyCap enforces, per local day: scheduled minutes of confirmed and
// live slots + recorded usage + requested minutes <= daily hours.
func (s *SlotService) checkDailyCap(ctx context.Context, djID string, ranges []calendar.Range) error {
	requested := make(map[time.Time]int)
	for _, r := range ranges {
		requested[s.dayOf(r.Start)] += ceilMinutes(r.End.Sub(r.Start))
	}

	for day, minutes := range requested {
		used, err := s.minutesUsed(ctx, djID, day)
		if err != nil {
			return err
		}
		if used+minutes > s.dailyCapMinutes() {
			return fmt.Errorf("%w: %d of %d minutes already used on %s",
				ErrDailyLimitExceeded, used, s.dailyCapMinutes(), day.Format("2 Jan"))
		}
	}
	return nil
}

func (s *SlotService) dailyCapMinutes() int {
	return s.settings.DailyHours * 60
}

func (s *SlotService) minutesUsed(ctx context.Context, djID string, day time.Time) (int, error) {
	slots, err := s.slots.ListByDJ(ctx, djID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("list dj slots: %w", err)
	}
	used := 0
	for _, slot := range slots {
		if slot.Status.IsBlocking() {
			used += ceilMinutes(slot.EndTime.Sub(slot.StartTime))
		}
	}

	recorded, err := s.usage.Minutes(ctx, djID, day)
	if err != nil {
		return 0, fmt.Errorf("get daily usage: %w", err)
	}
	return used + recorded, nil
}

// checkWeeklyCap counts non-cancelled slots per ISO week (Monday start, local time).
func (s *SlotService) checkWeeklyCap(ctx context.Context, djID string, ranges []calendar.Range) error {
	if s.settings.WeeklySlots <= 0 {
		return nil
	}

	requested := make(map[time.Time]int)
	for _, r := range ranges {
		requested[s.weekOf(r.Start)]++
	}

	for week, n := range requested {
		slots, err := s.slots.ListByDJ(ctx, djID, week, week.AddDate(0, 0, 7))
		if err != nil {
			return fmt.Errorf("list dj slots: %w", err)
		}
		booked := 0
		for _, slot := range slots {
			if slot.Status != model.SlotStatusCancelled {
				booked++
			}
		}
		if booked+n > s.settings.WeeklySlots {
			return fmt.Errorf("%w: %d slots per week", ErrWeeklyLimitExceeded, s.settings.WeeklySlots)
		}
	}
	return nil
}

// checkOverlap fails when any blocking slot intersects any of ranges.
func (s *SlotService) checkOverlap(ctx context.Context, from, to time.Time, ranges []calendar.Range) error {
	existing, err := s.slots.ListWindow(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list slots: %w", err)
	}
	for _, slot := range existing {
		if !slot.Status.IsBlocking() {
			continue
		}
		for _, r := range ranges {
			if slot.Overlaps(r.Start, r.End) {
				return ErrSlotConflict
			}
		}
	}
	return nil
}

// GoLiveRequest takes the scheduled path when SlotID is set, otherwise the
// instant "Go Live Now" path.
type GoLiveRequest struct {
	SlotID string
	Title  string
	Genre  string
}

func (s *SlotService) GoLive(ctx context.Context, caller Caller, req GoLiveRequest) (*model.Slot, error) {
	if req.SlotID == "" {
		return s.goLiveInstant(ctx, caller, req)
	}
	return s.goLiveScheduled(ctx, caller, req.SlotID)
}

func (s *SlotService) goLiveScheduled(ctx context.Context, caller Caller, slotID string) (*model.Slot, error) {
	now := s.now()

	slot, err := s.Get(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.DJID != caller.ID {
		return nil, ErrUnauthorized
	}
	if slot.Status == model.SlotStatusLive {
		return slot, nil
	}
	if slot.Status != model.SlotStatusConfirmed {
		return nil, ErrInvalidTransition
	}
	if !s.window.Valid(slot.KeyActive, now, slot.StartTime, slot.EndTime) {
		return nil, ErrKeyNotActive
	}
	if now.After(slot.StartTime) && !s.settings.AllowGoLiveAfter {
		return nil, fmt.Errorf("%w: late start is not allowed", ErrGoLiveDisabled)
	}

	live, err := s.slots.GetLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get live slot: %w", err)
	}
	if live != nil && live.ID != slot.ID {
		return nil, ErrAlreadyLive
	}

	ok, err := s.slots.MarkLive(ctx, slot.ID, now)
	if err != nil {
		if errors.Is(err, base.ErrDuplicate) {
			return nil, ErrAlreadyLive
		}
		return nil, fmt.Errorf("mark live: %w", err)
	}
	if !ok {
		return nil, s.explainLiveRace(ctx, slot.ID)
	}

	slot.Status = model.SlotStatusLive
	slot.StartedAt = &now
	s.afterLive(ctx, slot, "scheduled")
	return slot, nil
}

// explainLiveRace maps a failed conditional go-live write to the error the caller should see.
func (s *SlotService) explainLiveRace(ctx context.Context, slotID string) error {
	live, err := s.slots.GetLive(ctx)
	if err != nil {
		return fmt.Errorf("get live slot: %w", err)
	}
	if live != nil && live.ID != slotID {
		return ErrAlreadyLive
	}
	return ErrInvalidTransition
}

func (s *SlotService) goLiveInstant(ctx context.Context, caller Caller, req GoLiveRequest) (*model.Slot, error) {
	if !s.settings.AllowGoLiveNow {
		return nil, ErrGoLiveDisabled
	}
	now := s.now()

	live, err := s.slots.GetLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get live slot: %w", err)
	}
	if live != nil {
		return nil, ErrAlreadyLive
	}

	end := s.nextHour(now)
	if err := s.checkOverlap(ctx, now, end, []calendar.Range{{Start: now, End: end}}); err != nil {
		return nil, err
	}

	day := s.dayOf(now)
	used, err := s.minutesUsed(ctx, caller.ID, day)
	if err != nil {
		return nil, err
	}
	if used+ceilMinutes(end.Sub(now)) > s.dailyCapMinutes() {
		return nil, ErrDailyLimitExceeded
	}

	if err := s.djs.Upsert(ctx, &model.DJ{ID: caller.ID, Name: caller.Name}); err != nil {
		return nil, fmt.Errorf("upsert dj: %w", err)
	}

	title := req.Title
	if title == "" {
		title = caller.Name + " live"
	}
	slot := s.newSlot(caller.ID, caller.Name, title, req.Genre, now, end)
	slot.Status = model.SlotStatusLive
	slot.Instant = true
	slot.StartedAt = &now

	if err := s.slots.Create(ctx, slot); err != nil {
		switch {
		case errors.Is(err, base.ErrDuplicate):
			return nil, ErrAlreadyLive
		case errors.Is(err, base.ErrConflict):
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("create instant slot: %w", err)
	}

	s.afterLive(ctx, slot, "instant")
	return slot, nil
}

// afterLive runs the side effects of a successful go-live. None of them can fail the operation.
func (s *SlotService) afterLive(ctx context.Context, slot *model.Slot, path string) {
	s.metrics.GoLive(path)
	s.invalidate(ctx)

	s.logger.Info("Slot went live",
		zap.String("slot_id", slot.ID),
		zap.String("dj_id", slot.DJID),
		zap.String("path", path),
		zap.Time("end", slot.EndTime),
	)

	if s.prober != nil {
		if err := s.prober.Probe(ctx, slot.StreamKey); err != nil {
			s.metrics.ProbeFailed()
			s.logger.Warn("HLS stream not detected after go-live",
				zap.String("slot_id", slot.ID),
				zap.Error(err),
			)
		}
	}

	if err := s.notifier.LiveChanged(ctx, slot); err != nil {
		s.logger.Warn("Failed to notify go-live", zap.String("slot_id", slot.ID), zap.Error(err))
	}
}

// EndStream completes a live slot and credits the elapsed minutes. Ending an
// already completed slot returns it unchanged.
func (s *SlotService) EndStream(ctx context.Context, caller Caller, slotID string) (*model.Slot, error) {
	now := s.now()

	slot, err := s.Get(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !caller.canManage(slot) {
		return nil, ErrUnauthorized
	}
	if slot.Status == model.SlotStatusCompleted {
		return slot, nil
	}
	if slot.Status != model.SlotStatusLive {
		return nil, ErrInvalidTransition
	}

	started := slot.StartTime
	if slot.StartedAt != nil {
		started = *slot.StartedAt
	}
	minutes := ceilMinutes(now.Sub(started))

	ok, err := s.slots.Complete(ctx, slot.ID, model.SlotStatusLive, now, s.credit(slot, minutes))
	if err != nil {
		return nil, fmt.Errorf("complete slot: %w", err)
	}
	if !ok {
		// lost a race with another end or the sweep
		return s.Get(ctx, slotID)
	}

	slot.Status = model.SlotStatusCompleted
	slot.EndedAt = &now

	s.metrics.StreamEnded("dj")
	s.metrics.SetLive(false)
	s.invalidate(ctx)
	if err := s.notifier.LiveChanged(ctx, slot); err != nil {
		s.logger.Warn("Failed to notify stream end", zap.String("slot_id", slot.ID), zap.Error(err))
	}

	s.logger.Info("Stream ended",
		zap.String("slot_id", slot.ID),
		zap.String("dj_id", slot.DJID),
		zap.Int("minutes", minutes),
	)
	return slot, nil
}

// CancelBooking cancels a confirmed slot (owner or admin) or, for admins only,
// a live one. The key stops working at once.
func (s *SlotService) CancelBooking(ctx context.Context, caller Caller, slotID string) (*model.Slot, error) {
	now := s.now()

	slot, err := s.Get(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !caller.canManage(slot) {
		return nil, ErrUnauthorized
	}

	switch {
	case slot.Status == model.SlotStatusConfirmed:
	case slot.Status == model.SlotStatusLive && caller.Admin:
	default:
		return nil, ErrInvalidTransition
	}

	ok, err := s.slots.Cancel(ctx, slot.ID, slot.Status, now)
	if err != nil {
		return nil, fmt.Errorf("cancel slot: %w", err)
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	wasLive := slot.Status == model.SlotStatusLive
	slot.Status = model.SlotStatusCancelled
	slot.KeyActive = false
	slot.EndedAt = &now

	if wasLive {
		s.metrics.SetLive(false)
		s.invalidate(ctx)
		if err := s.notifier.LiveChanged(ctx, slot); err != nil {
			s.logger.Warn("Failed to notify cancellation", zap.String("slot_id", slot.ID), zap.Error(err))
		}
	}

	s.logger.Info("Slot cancelled",
		zap.String("slot_id", slot.ID),
		zap.String("by", caller.ID),
		zap.Bool("was_live", wasLive),
	)
	return slot, nil
}

// ExpirySweep completes every confirmed or live slot whose end plus grace has
// passed, crediting the scheduled interval. It keeps going past individual
// failures and returns them joined.
func (s *SlotService) ExpirySweep(ctx context.Context) (int, error) {
	now := s.now()

	expired, err := s.slots.ListExpired(ctx, now.Add(-s.settings.GracePeriod))
	if err != nil {
		return 0, fmt.Errorf("list expired slots: %w", err)
	}

	var errs []error
	completed := 0
	for _, slot := range expired {
		ok, err := s.expire(ctx, slot, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			completed++
		}
	}

	s.metrics.Swept("slots", completed)
	if completed > 0 {
		s.logger.Info("Expired slots completed", zap.Int("count", completed))
	}
	return completed, errors.Join(errs...)
}

// credit is the usage a completed slot adds to the day it started on.
func (s *SlotService) credit(slot *model.Slot, minutes int) model.DailyUsage {
	return model.DailyUsage{DJID: slot.DJID, Day: s.dayOf(slot.StartTime), StreamMinutes: minutes}
}

func (s *SlotService) expire(ctx context.Context, slot *model.Slot, now time.Time) (bool, error) {
	wasLive := slot.Status == model.SlotStatusLive

	credit := s.credit(slot, ceilMinutes(slot.EndTime.Sub(slot.StartTime)))
	ok, err := s.slots.Complete(ctx, slot.ID, slot.Status, now, credit)
	if err != nil {
		return false, fmt.Errorf("complete slot %s: %w", slot.ID, err)
	}
	if !ok {
		return false, nil
	}

	slot.Status = model.SlotStatusCompleted
	slot.EndedAt = &now
	s.metrics.StreamEnded("sweep")

	if wasLive {
		s.metrics.SetLive(false)
		s.invalidate(ctx)
		if err := s.notifier.LiveChanged(ctx, slot); err != nil {
			s.logger.Warn("Failed to notify expiry", zap.String("slot_id", slot.ID), zap.Error(err))
		}
	}
	return true, nil
}

// Current returns the live slot or nil. A live slot past its end plus grace is
// expired on the spot.
func (s *SlotService) Current(ctx context.Context) (*model.Slot, error) {
	slot, hit, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("Live cache read failed", zap.Error(err))
	}
	if err == nil && hit && (slot == nil || !s.pastGrace(slot)) {
		return slot, nil
	}

	slot, err = s.slots.GetLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get live slot: %w", err)
	}
	if slot != nil && s.pastGrace(slot) {
		if _, err := s.expire(ctx, slot, s.now()); err != nil {
			return nil, err
		}
		slot = nil
	}

	s.metrics.SetLive(slot != nil)
	if err := s.cache.Set(ctx, slot); err != nil {
		s.logger.Warn("Live cache write failed", zap.Error(err))
	}
	return slot, nil
}

func (s *SlotService) pastGrace(slot *model.Slot) bool {
	return s.now().After(s.window.Closes(slot.EndTime))
}

func (s *SlotService) Get(ctx context.Context, id string) (*model.Slot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrNotFound
	}
	return slot, nil
}

// ListWindow returns every slot overlapping [from, to), any status.
func (s *SlotService) ListWindow(ctx context.Context, from, to time.Time) ([]*model.Slot, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty window", ErrInvalidSelection)
	}
	slots, err := s.slots.ListWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// ListForDJ returns the DJ's slots starting in [from, to).
func (s *SlotService) ListForDJ(ctx context.Context, djID string, from, to time.Time) ([]*model.Slot, error) {
	slots, err := s.slots.ListByDJ(ctx, djID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list dj slots: %w", err)
	}
	return slots, nil
}

// Credentials returns the ingest settings for the slot owner, or for the DJ
// an approved takeover handed the slot to, while the key is valid.
func (s *SlotService) Credentials(ctx context.Context, caller Caller, slotID string) (model.PlaybackCredentials, error) {
	slot, err := s.Get(ctx, slotID)
	if err != nil {
		return model.PlaybackCredentials{}, err
	}
	handedOver := slot.HandedOverTo != nil && *slot.HandedOverTo == caller.ID
	if slot.DJID != caller.ID && !handedOver {
		return model.PlaybackCredentials{}, ErrUnauthorized
	}
	if !s.window.Valid(slot.KeyActive, s.now(), slot.StartTime, slot.EndTime) {
		return model.PlaybackCredentials{}, ErrKeyNotActive
	}
	return s.credentials(slot), nil
}

func (s *SlotService) credentials(slot *model.Slot) model.PlaybackCredentials {
	return model.PlaybackCredentials{ServerURL: s.serverURL, StreamKey: slot.StreamKey}
}

// ValidateKey is the ingest server's publish check: the key must be signed by
// us, belong to a slot, be active, and be inside its window right now.
func (s *SlotService) ValidateKey(ctx context.Context, key string) (*model.Slot, error) {
	if !streamkey.IsSigned(key) {
		return nil, ErrKeyNotActive
	}
	slot, err := s.slots.GetByStreamKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get slot by key: %w", err)
	}
	if slot == nil {
		return nil, ErrNotFound
	}
	if !s.keys.Verify(key, slot.DJID, slot.ID, slot.StartTime, slot.EndTime) {
		return nil, ErrKeyNotActive
	}
	if slot.Status.IsTerminal() || !s.window.Valid(slot.KeyActive, s.now(), slot.StartTime, slot.EndTime) {
		return nil, ErrKeyNotActive
	}
	return slot, nil
}

func (s *SlotService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Live cache invalidate failed", zap.Error(err))
	}
}

// dayOf is local midnight of the day containing t.
func (s *SlotService) dayOf(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// weekOf is local midnight of the Monday starting t's ISO week.
func (s *SlotService) weekOf(t time.Time) time.Time {
	day := s.dayOf(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// nextHour is the next top of the clock hour in station time.
func (s *SlotService) nextHour(t time.Time) time.Time {
	local := t.In(s.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, local.Hour()+1, 0, 0, 0, s.loc)
}

// ceilMinutes rounds up to whole minutes at millisecond precision.
func ceilMinutes(d time.Duration) int {
	ms := d.Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int((ms + 59999) / 60000)
}
