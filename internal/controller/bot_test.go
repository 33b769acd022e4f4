package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/config"
	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/notify"
	"github.com/DJCodeOne/freshwax-sub008/internal/repository/memory"
	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"github.com/DJCodeOne/freshwax-sub008/internal/streamkey"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	tgAlpha int64 = 1001
	tgBravo int64 = 1002

	liveSlotID = "d0000000-0000-4000-8000-000000000004"
)

type fakeAPI struct {
	mu       sync.Mutex
	messages []*bot.SendMessageParams
	photos   []*bot.SendPhotoParams
	deleted  []int
	answers  []*bot.AnswerCallbackQueryParams
	nextID   int
}

func (f *fakeAPI) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, p)
	f.nextID++
	return &models.Message{ID: f.nextID}, nil
}

func (f *fakeAPI) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, p)
	f.nextID++
	return &models.Message{ID: f.nextID}, nil
}

func (f *fakeAPI) DeleteMessage(_ context.Context, p *bot.DeleteMessageParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, p.MessageID)
	return true, nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, p)
	return true, nil
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1].Text
}

func (f *fakeAPI) lastAnswer(t *testing.T) *bot.AnswerCallbackQueryParams {
	t.Helper()
	require.NotEmpty(t, f.answers)
	return f.answers[len(f.answers)-1]
}

type botEnv struct {
	api       *fakeAPI
	ctrl      *BotController
	slotRepo  *memory.SlotRepository
	slots     *service.SlotService
	takeovers *service.TakeoverService
	keys      *streamkey.Generator
}

var tokens = map[string]service.Caller{
	"token-a": {ID: "dj-a", Name: "Alpha"},
	"token-b": {ID: "dj-b", Name: "Bravo"},
}

func newBotEnv(t *testing.T) *botEnv {
	t.Helper()

	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	keys, err := streamkey.NewGenerator("test-secret")
	require.NoError(t, err)

	logger := zap.NewNop()
	settings := config.DefaultSettings()
	usageRepo := memory.NewUsageRepository()
	slotRepo := memory.NewSlotRepository(usageRepo)
	djRepo := memory.NewDJRepository()

	slots := service.NewSlotService(service.SlotDeps{
		Slots:     slotRepo,
		Usage:     usageRepo,
		DJs:       djRepo,
		Notifier:  notify.Nop{},
		Keys:      keys,
		Location:  loc,
		ServerURL: "rtmp://ingest.test/live",
	}, settings, logger)
	takeovers := service.NewTakeoverService(memory.NewTakeoverRepository(), slots, notify.Nop{}, nil, settings, logger)

	api := &fakeAPI{}
	ctrl := newBotController(api, BotDeps{
		DJs:       service.NewDJService(djRepo, logger),
		Slots:     slots,
		Takeovers: takeovers,
		Identify: func(token string) (service.Caller, error) {
			c, ok := tokens[token]
			if !ok {
				return service.Caller{}, errors.New("bad token")
			}
			return c, nil
		},
	}, logger)

	return &botEnv{api: api, ctrl: ctrl, slotRepo: slotRepo, slots: slots, takeovers: takeovers, keys: keys}
}

func message(from int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: from},
		From: &models.User{ID: from},
		Text: text,
	}}
}

func press(from int64, data string) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb",
		From: models.User{ID: from},
		Data: data,
	}}
}

func (e *botEnv) link(t *testing.T, tg int64, token string) {
	t.Helper()
	e.ctrl.HandleLink(context.Background(), nil, message(tg, "/link "+token))
	require.Contains(t, e.api.lastText(t), "Linked")
}

// seedLive puts djID on air in a slot that started a minute ago.
func (e *botEnv) seedLive(t *testing.T, djID, djName string) *model.Slot {
	t.Helper()
	start := time.Now().Truncate(time.Minute).Add(-time.Minute)
	end := start.Add(time.Hour)
	e.slotRepo.Put(&model.Slot{
		ID:        liveSlotID,
		DJID:      djID,
		DJName:    djName,
		StartTime: start,
		EndTime:   end,
		Duration:  60,
		StreamKey: e.keys.Generate(djID, liveSlotID, start, end),
		KeyActive: true,
		Status:    model.SlotStatusConfirmed,
	})
	slot, err := e.slots.GoLive(context.Background(), service.Caller{ID: djID, Name: djName}, service.GoLiveRequest{SlotID: liveSlotID})
	require.NoError(t, err)
	return slot
}

func TestHandleLink(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	env.ctrl.HandleLink(ctx, nil, message(tgAlpha, "/link nope"))
	assert.Contains(t, env.api.lastText(t), "invalid or expired")

	env.ctrl.HandleLink(ctx, nil, message(tgAlpha, "/link"))
	assert.Contains(t, env.api.lastText(t), "/link")

	env.link(t, tgAlpha, "token-a")
	assert.Contains(t, env.api.lastText(t), "Alpha")

	env.ctrl.HandleStart(ctx, nil, message(tgAlpha, "/start"))
	assert.Contains(t, env.api.lastText(t), "Hi, <b>Alpha</b>")
}

func TestUnlinkedUserIsAskedToLink(t *testing.T) {
	env := newBotEnv(t)

	env.ctrl.HandleCalendar(context.Background(), nil, message(tgAlpha, "/calendar"))
	assert.Contains(t, env.api.lastText(t), "Link your account first")
	assert.Empty(t, env.api.photos)

	env.ctrl.HandleCallbackQuery(context.Background(), nil, press(tgAlpha, "cal_today"))
	assert.True(t, env.api.lastAnswer(t).ShowAlert)
}

func TestCalendarBookingFlow(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()
	env.link(t, tgAlpha, "token-a")

	env.ctrl.HandleCalendar(ctx, nil, message(tgAlpha, "/calendar"))
	require.Len(t, env.api.photos, 1)
	assert.Contains(t, env.api.photos[0].Caption, "no hours selected")

	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgAlpha, "cal_nav:1"))
	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgAlpha, "cal_toggle:10"))
	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgAlpha, "cal_toggle:12"))
	require.Len(t, env.api.photos, 4)
	assert.Contains(t, env.api.photos[3].Caption, "2 separate slots")
	// every redraw replaces the previous photo
	assert.Len(t, env.api.deleted, 3)

	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgAlpha, "cal_toggle:14"))
	assert.Equal(t, "You can only book up to 2 hours per day", env.api.lastAnswer(t).Text)
	assert.Len(t, env.api.photos, 4)

	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgAlpha, "cal_book"))
	assert.Equal(t, "Booked!", env.api.lastAnswer(t).Text)
	assert.Contains(t, env.api.lastText(t), "Booked 2 slot(s)")

	now := time.Now()
	booked, err := env.slots.ListForDJ(ctx, "dj-a", now, now.Add(72*time.Hour))
	require.NoError(t, err)
	require.Len(t, booked, 2)
	assert.Equal(t, 60, booked[0].Duration)

	env.ctrl.HandleMyBookings(ctx, nil, message(tgAlpha, "/mybookings"))
	assert.Contains(t, env.api.lastText(t), "Your slots")
}

func TestCalendarToggleRejectsBookedCell(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()
	env.link(t, tgAlpha, "token-a")
	env.link(t, tgBravo, "token-b")

	tomorrow := time.Now().In(env.slots.Location()).AddDate(0, 0, 1)
	_, err := env.slots.BookCells(ctx, service.Caller{ID: "dj-a", Name: "Alpha"}, service.CellBooking{Day: tomorrow, Cells: []int{10}})
	require.NoError(t, err)

	env.ctrl.HandleCalendar(ctx, nil, message(tgBravo, "/calendar"))
	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgBravo, "cal_nav:1"))
	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgBravo, "cal_toggle:10"))

	answer := env.api.lastAnswer(t)
	assert.True(t, answer.ShowAlert)
	assert.Equal(t, "That time overlaps an existing booking", answer.Text)
}

func TestGoLiveAndEndStream(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()
	env.link(t, tgAlpha, "token-a")

	start := time.Now().Truncate(time.Minute).Add(-time.Minute)
	end := start.Add(time.Hour)
	key := env.keys.Generate("dj-a", liveSlotID, start, end)
	env.slotRepo.Put(&model.Slot{
		ID: liveSlotID, DJID: "dj-a", DJName: "Alpha",
		StartTime: start, EndTime: end, Duration: 60,
		StreamKey: key, KeyActive: true, Status: model.SlotStatusConfirmed,
	})

	env.ctrl.HandleGoLive(ctx, nil, message(tgAlpha, "/golive"))
	text := env.api.lastText(t)
	assert.Contains(t, text, "You are live")
	assert.Contains(t, text, key)
	assert.Contains(t, text, "rtmp://ingest.test/live")

	env.ctrl.HandleLive(ctx, nil, message(tgBravo, "/live"))
	assert.Contains(t, env.api.lastText(t), "On air")

	env.ctrl.HandleEndStream(ctx, nil, message(tgAlpha, "/endstream"))
	assert.Contains(t, env.api.lastText(t), "Stream ended")

	env.ctrl.HandleLive(ctx, nil, message(tgBravo, "/live"))
	assert.Contains(t, env.api.lastText(t), "Nobody is on air")
}

func TestTakeoverButtons(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()
	env.link(t, tgAlpha, "token-a")
	env.link(t, tgBravo, "token-b")
	env.seedLive(t, "dj-a", "Alpha")

	env.ctrl.HandleTakeover(ctx, nil, message(tgBravo, "/takeover"))
	assert.Contains(t, env.api.lastText(t), "Asked <b>Alpha</b>")

	env.ctrl.HandleTakeover(ctx, nil, message(tgAlpha, "/takeover"))
	assert.Equal(t, "You cannot take over your own stream.", env.api.lastText(t))

	// only the live DJ may answer
	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgBravo, notify.CallbackTakeoverApprove+"dj-b"))
	assert.True(t, env.api.lastAnswer(t).ShowAlert)

	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgAlpha, notify.CallbackTakeoverApprove+"dj-b"))
	assert.Contains(t, env.api.lastText(t), "Handed over to Bravo")

	// a second press reports the recorded outcome
	env.ctrl.HandleCallbackQuery(ctx, nil, press(tgAlpha, notify.CallbackTakeoverDecline+"dj-b"))
	assert.Contains(t, env.api.lastText(t), "Handed over to Bravo")

	creds, err := env.slots.Credentials(ctx, service.Caller{ID: "dj-b"}, liveSlotID)
	require.NoError(t, err)
	assert.NotEmpty(t, creds.StreamKey)
}
