package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/config"
	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/repository/memory"
	"github.com/DJCodeOne/freshwax-sub008/internal/streamkey"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func cloneRequest(r *model.TakeoverRequest) *model.TakeoverRequest {
	cp := *r
	return &cp
}

func cloneSlot(s *model.Slot) *model.Slot {
	cp := *s
	return &cp
}

type recordingNotifier struct {
	mu        sync.Mutex
	requested []*model.TakeoverRequest
	approved  []model.PlaybackCredentials
	declined  []*model.TakeoverRequest
	live      []*model.Slot
}

func (n *recordingNotifier) TakeoverRequested(_ context.Context, req *model.TakeoverRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested = append(n.requested, cloneRequest(req))
	return nil
}

func (n *recordingNotifier) TakeoverApproved(_ context.Context, _ *model.TakeoverRequest, creds model.PlaybackCredentials) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, creds)
	return nil
}

func (n *recordingNotifier) TakeoverDeclined(_ context.Context, req *model.TakeoverRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.declined = append(n.declined, cloneRequest(req))
	return nil
}

func (n *recordingNotifier) LiveChanged(_ context.Context, slot *model.Slot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.live = append(n.live, cloneSlot(slot))
	return errors.New("push channel down")
}

type fakeProber struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *fakeProber) Probe(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

const testServerURL = "rtmp://ingest.test/live"

type harness struct {
	slots     *memory.SlotRepository
	usage     *memory.UsageRepository
	djs       *memory.DJRepository
	takeovers *memory.TakeoverRepository
	notifier  *recordingNotifier
	prober    *fakeProber
	keys      *streamkey.Generator
	svc       *SlotService
	takeover  *TakeoverService
	sweeper   *Sweeper
	loc       *time.Location
	now       time.Time
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	return newHarnessWith(t, now, config.DefaultSettings())
}

func newHarnessWith(t *testing.T, now time.Time, settings config.Settings) *harness {
	t.Helper()

	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	keys, err := streamkey.NewGenerator("test-secret")
	require.NoError(t, err)

	usage := memory.NewUsageRepository()
	h := &harness{
		slots:     memory.NewSlotRepository(usage),
		usage:     usage,
		djs:       memory.NewDJRepository(),
		takeovers: memory.NewTakeoverRepository(),
		notifier:  &recordingNotifier{},
		prober:    &fakeProber{},
		keys:      keys,
		loc:       loc,
		now:       now,
	}

	logger := zap.NewNop()
	h.svc = NewSlotService(SlotDeps{
		Slots:     h.slots,
		Usage:     h.usage,
		DJs:       h.djs,
		Notifier:  h.notifier,
		Prober:    h.prober,
		Keys:      keys,
		Location:  loc,
		ServerURL: testServerURL,
	}, settings, logger)
	h.svc.now = func() time.Time { return h.now }

	h.takeover = NewTakeoverService(h.takeovers, h.svc, h.notifier, nil, settings, logger)
	h.sweeper = NewSweeper(h.svc, h.takeover, logger)
	return h
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

// at returns the given wall-clock time in London on the harness day.
func (h *harness) at(hour, minute int) time.Time {
	y, m, d := h.now.In(h.loc).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, h.loc)
}

// seedSlot stores a confirmed slot with a real signed key.
func (h *harness) seedSlot(id, djID string, start, end time.Time) *model.Slot {
	slot := &model.Slot{
		ID:        id,
		DJID:      djID,
		DJName:    "DJ " + djID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		Duration:  int(end.Sub(start).Minutes()),
		StreamKey: h.keys.Generate(djID, id, start, end),
		KeyActive: true,
		Status:    model.SlotStatusConfirmed,
	}
	h.slots.Put(slot)
	return slot
}

// slot reads the stored slot directly.
func (h *harness) slot(id string) *model.Slot {
	s, _ := h.slots.GetByID(context.Background(), id)
	return s
}
