package controller

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const bookingsHorizon = 14 * 24 * time.Hour

func (c *BotController) HandleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	caller, err := c.djs.CallerFor(ctx, update.Message.From.ID)
	if err != nil {
		c.reply(ctx, chatID, "👋 Welcome to Fresh Wax Live!\n\n"+
			"Link your DJ account first: copy the token from your dashboard and send\n"+
			"<code>/link &lt;token&gt;</code>")
		return
	}

	c.reply(ctx, chatID, fmt.Sprintf("👋 Hi, <b>%s</b>!\n\n%s", html.EscapeString(caller.Name), helpText))
}

const helpText = "/calendar - pick hours and book a slot\n" +
	"/mybookings - your upcoming slots\n" +
	"/live - who is on air\n" +
	"/golive - start your slot, or go live now if the station is free\n" +
	"/endstream - end your stream\n" +
	"/takeover - ask the live DJ to hand over\n" +
	"/link - link your Fresh Wax account"

func (c *BotController) HandleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.reply(ctx, update.Message.Chat.ID, "📚 Commands:\n\n"+helpText)
}

// HandleLink handles /link <token>.
func (c *BotController) HandleLink(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	token := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/link"))
	if token == "" {
		c.reply(ctx, chatID, "Send <code>/link &lt;token&gt;</code> with the token from your dashboard.")
		return
	}

	caller, err := c.identify(token)
	if err != nil {
		c.logger.Info("Link rejected", zap.Int64("telegram_id", update.Message.From.ID), zap.Error(err))
		c.reply(ctx, chatID, "❌ That token is invalid or expired.")
		return
	}

	dj, err := c.djs.Link(ctx, caller, update.Message.From.ID)
	if err != nil {
		c.logger.Error("Failed to link telegram", zap.Error(err))
		c.reply(ctx, chatID, c.errorText(err))
		return
	}
	c.reply(ctx, chatID, fmt.Sprintf("🔗 Linked to <b>%s</b>.\n\n%s", html.EscapeString(dj.Name), helpText))
}

func (c *BotController) HandleCalendar(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	caller, ok := c.caller(ctx, chatID, telegramID)
	if !ok {
		return
	}

	now := c.slots.Now()
	c.sessions.Clear(telegramID)
	c.showCalendar(ctx, chatID, telegramID, caller, calendarSession(now))
}

func (c *BotController) HandleMyBookings(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	caller, ok := c.caller(ctx, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	now := c.slots.Now()
	slots, err := c.slots.ListForDJ(ctx, caller.ID, now.Add(-24*time.Hour), now.Add(bookingsHorizon))
	if err != nil {
		c.logger.Error("Failed to list bookings", zap.String("dj_id", caller.ID), zap.Error(err))
		c.reply(ctx, chatID, c.errorText(err))
		return
	}

	var b strings.Builder
	b.WriteString("🎧 <b>Your slots</b>\n\n")
	n := 0
	for _, s := range slots {
		if s.Status.IsTerminal() || s.EndTime.Before(now) {
			continue
		}
		n++
		b.WriteString(c.formatSlot(s))
		b.WriteString("\n")
	}
	if n == 0 {
		b.WriteString("Nothing booked. Use /calendar to pick a slot.")
	}
	c.reply(ctx, chatID, b.String())
}

func (c *BotController) HandleLive(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	slot, err := c.slots.Current(ctx)
	if err != nil {
		c.logger.Error("Failed to read live slot", zap.Error(err))
		c.reply(ctx, chatID, c.errorText(err))
		return
	}
	if slot == nil {
		c.reply(ctx, chatID, "📻 Nobody is on air right now.")
		return
	}
	c.reply(ctx, chatID, "🔴 <b>On air</b>\n\n"+c.formatSlot(slot))
}

// HandleGoLive starts the caller's slot if its key window is open, or an
// instant session otherwise.
func (c *BotController) HandleGoLive(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	caller, ok := c.caller(ctx, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	slotID, err := c.openSlotOf(ctx, caller.ID)
	if err != nil {
		c.logger.Error("Failed to find open slot", zap.String("dj_id", caller.ID), zap.Error(err))
		c.reply(ctx, chatID, c.errorText(err))
		return
	}

	slot, err := c.slots.GoLive(ctx, caller, service.GoLiveRequest{SlotID: slotID})
	if err != nil {
		c.reply(ctx, chatID, c.errorText(err))
		return
	}
	creds, err := c.slots.Credentials(ctx, caller, slot.ID)
	if err != nil {
		c.reply(ctx, chatID, c.errorText(err))
		return
	}

	c.reply(ctx, chatID, fmt.Sprintf("🔴 You are live until %s.\n\nServer: <code>%s</code>\nStream key: <code>%s</code>",
		slot.EndTime.In(c.slots.Location()).Format("15:04"),
		html.EscapeString(creds.ServerURL),
		html.EscapeString(creds.StreamKey)))
}

// openSlotOf returns the caller's live or confirmed slot whose key window is
// open now, or "" when there is none.
func (c *BotController) openSlotOf(ctx context.Context, djID string) (string, error) {
	now := c.slots.Now()
	settings := c.slots.Settings()

	slots, err := c.slots.ListForDJ(ctx, djID, now.Add(-24*time.Hour), now.Add(settings.StreamKeyReveal+time.Second))
	if err != nil {
		return "", err
	}
	for _, s := range slots {
		if !s.Status.IsBlocking() {
			continue
		}
		if !s.StartTime.After(now.Add(settings.StreamKeyReveal)) && now.Before(s.EndTime.Add(settings.GracePeriod)) {
			return s.ID, nil
		}
	}
	return "", nil
}

func (c *BotController) HandleEndStream(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	caller, ok := c.caller(ctx, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	live, err := c.slots.Current(ctx)
	if err != nil {
		c.reply(ctx, chatID, c.errorText(err))
		return
	}
	if live == nil || (live.DJID != caller.ID && !caller.Admin) {
		c.reply(ctx, chatID, "You are not on air.")
		return
	}

	if _, err := c.slots.EndStream(ctx, caller, live.ID); err != nil {
		c.reply(ctx, chatID, c.errorText(err))
		return
	}
	c.reply(ctx, chatID, fmt.Sprintf("⏹ Stream ended at %s.", c.slots.Now().In(c.slots.Location()).Format("15:04")))
}

// HandleTakeover asks whoever is live to hand the stream over to the caller.
func (c *BotController) HandleTakeover(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	caller, ok := c.caller(ctx, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	live, err := c.slots.Current(ctx)
	if err != nil {
		c.reply(ctx, chatID, c.errorText(err))
		return
	}
	if live == nil {
		c.reply(ctx, chatID, c.errorText(service.ErrTargetNotLive))
		return
	}

	req, err := c.takeovers.Request(ctx, caller, service.TakeoverTarget{ID: live.DJID, Name: live.DJName})
	if err != nil {
		c.reply(ctx, chatID, c.errorText(err))
		return
	}
	c.reply(ctx, chatID, fmt.Sprintf("🎛 Asked <b>%s</b> to hand over. You will hear back here.",
		html.EscapeString(req.TargetDJName)))
}

func (c *BotController) formatSlot(s *model.Slot) string {
	loc := c.slots.Location()
	title := s.StreamTitle
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("%s %s %s-%s <b>%s</b> (%s)",
		statusEmoji(s.Status),
		s.StartTime.In(loc).Format("Mon 02 Jan"),
		s.StartTime.In(loc).Format("15:04"),
		s.EndTime.In(loc).Format("15:04"),
		html.EscapeString(title),
		html.EscapeString(s.DJName))
}

func statusEmoji(status model.SlotStatus) string {
	switch status {
	case model.SlotStatusLive:
		return "🔴"
	case model.SlotStatusConfirmed:
		return "🗓"
	case model.SlotStatusCompleted:
		return "✔️"
	default:
		return "✖️"
	}
}
