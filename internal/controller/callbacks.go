package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/calendar"
	"github.com/DJCodeOne/freshwax-sub008/internal/controller/keyboard"
	"github.com/DJCodeOne/freshwax-sub008/internal/controller/state"
	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/notify"
	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCallbackQuery routes inline button presses.
func (c *BotController) HandleCallbackQuery(ctx context.Context, _ *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}
	data := callback.Data

	c.logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("telegram_id", callback.From.ID))

	switch {
	case data == keyboard.Noop:
		c.answer(ctx, callback.ID, "", false)
	case strings.HasPrefix(data, keyboard.CalToggle),
		strings.HasPrefix(data, keyboard.CalNav),
		data == keyboard.CalToday,
		data == keyboard.CalClear,
		data == keyboard.CalBook:
		c.handleCalendarCallback(ctx, callback)
	case strings.HasPrefix(data, notify.CallbackTakeoverApprove):
		c.handleTakeoverDecision(ctx, callback, strings.TrimPrefix(data, notify.CallbackTakeoverApprove), true)
	case strings.HasPrefix(data, notify.CallbackTakeoverDecline):
		c.handleTakeoverDecision(ctx, callback, strings.TrimPrefix(data, notify.CallbackTakeoverDecline), false)
	default:
		c.logger.Warn("Unknown callback", zap.String("data", data))
		c.answer(ctx, callback.ID, "", false)
	}
}

func chatOf(callback *models.CallbackQuery) int64 {
	if callback.Message.Message != nil {
		return callback.Message.Message.Chat.ID
	}
	// private chats share the user id
	return callback.From.ID
}

func calendarSession(now time.Time) state.Session {
	return state.Session{Day: now, UpdatedAt: now}
}

func (c *BotController) handleCalendarCallback(ctx context.Context, callback *models.CallbackQuery) {
	chatID := chatOf(callback)
	telegramID := callback.From.ID

	caller, err := c.djs.CallerFor(ctx, telegramID)
	if err != nil {
		c.answer(ctx, callback.ID, c.errorText(err), true)
		return
	}

	now := c.slots.Now()
	sess, ok := c.sessions.Get(telegramID, now)
	if !ok {
		sess = calendarSession(now)
	}
	if callback.Message.Message != nil {
		sess.MessageID = callback.Message.Message.ID
	}

	cal := c.slots.NewCalendar(sess.Day)
	cal.Select(sess.Selected...)

	data := callback.Data
	switch {
	case strings.HasPrefix(data, keyboard.CalToggle):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, keyboard.CalToggle))
		if err != nil {
			c.answer(ctx, callback.ID, "", false)
			return
		}
		if err := c.slots.ToggleCell(ctx, cal, idx, caller.ID); err != nil {
			c.answer(ctx, callback.ID, c.errorText(err), true)
			return
		}
	case strings.HasPrefix(data, keyboard.CalNav):
		days, err := strconv.Atoi(strings.TrimPrefix(data, keyboard.CalNav))
		if err != nil {
			c.answer(ctx, callback.ID, "", false)
			return
		}
		cal.Shift(days)
	case data == keyboard.CalToday:
		cal.Today(now)
	case data == keyboard.CalClear:
		cal.ClearSelection()
	case data == keyboard.CalBook:
		c.bookSelection(ctx, callback, caller, cal, sess)
		return
	}

	sess.Day = cal.Anchor()
	sess.Selected = cal.Selected()
	sess.UpdatedAt = now

	c.answer(ctx, callback.ID, "", false)
	c.showCalendar(ctx, chatID, telegramID, caller, sess)
}

// showCalendar sends the grid as a fresh photo and removes the previous one.
func (c *BotController) showCalendar(ctx context.Context, chatID, telegramID int64, caller service.Caller, sess state.Session) {
	cal := c.slots.NewCalendar(sess.Day)
	cal.Select(sess.Selected...)

	view, err := c.slots.View(ctx, cal, caller.ID)
	if err != nil {
		c.logger.Error("Failed to build calendar", zap.String("dj_id", caller.ID), zap.Error(err))
		c.reply(ctx, chatID, c.errorText(err))
		return
	}
	png, err := c.slots.RenderCalendar(ctx, cal, caller.ID)
	if err != nil {
		c.logger.Error("Failed to render calendar", zap.String("dj_id", caller.ID), zap.Error(err))
		c.reply(ctx, chatID, c.errorText(err))
		return
	}

	caption := fmt.Sprintf("📅 <b>%s</b>\n%s, up to %d h per day",
		cal.Anchor().Format("Monday 02 January"), view.Summary, view.MaxSelection)

	msg, err := c.api.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileUpload{Filename: "calendar.png", Data: bytes.NewReader(png)},
		Caption:     caption,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard.Calendar(view.Cells, len(view.Selected)),
	})
	if err != nil {
		c.logger.Error("Failed to send calendar", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	c.deleteMessage(ctx, chatID, sess.MessageID)
	sess.MessageID = msg.ID
	c.sessions.Set(telegramID, sess)
}

func (c *BotController) bookSelection(ctx context.Context, callback *models.CallbackQuery, caller service.Caller, cal *calendar.Calendar, sess state.Session) {
	chatID := chatOf(callback)

	slots, err := c.slots.BookCells(ctx, caller, service.CellBooking{
		Day:   cal.Anchor(),
		Cells: cal.Selected(),
	})
	if err != nil {
		c.answer(ctx, callback.ID, c.errorText(err), true)
		return
	}

	c.sessions.Clear(callback.From.ID)
	c.answer(ctx, callback.ID, "Booked!", false)
	c.deleteMessage(ctx, chatID, sess.MessageID)

	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Booked %d slot(s)</b>\n\n", len(slots))
	for _, s := range slots {
		b.WriteString(c.formatSlot(s))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nUse /golive up to %d minutes before your start.",
		int(c.slots.Settings().StreamKeyReveal.Minutes()))
	c.reply(ctx, chatID, b.String())
}

func (c *BotController) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	_, err := c.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		c.logger.Debug("Failed to delete message", zap.Int("message_id", messageID), zap.Error(err))
	}
}

// handleTakeoverDecision answers the buttons attached to a takeover request.
func (c *BotController) handleTakeoverDecision(ctx context.Context, callback *models.CallbackQuery, requesterID string, approve bool) {
	caller, err := c.djs.CallerFor(ctx, callback.From.ID)
	if err != nil {
		c.answer(ctx, callback.ID, c.errorText(err), true)
		return
	}

	var req *model.TakeoverRequest
	if approve {
		req, err = c.takeovers.Approve(ctx, caller, requesterID, caller.ID)
	} else {
		req, err = c.takeovers.Decline(ctx, caller, requesterID, caller.ID)
	}
	if err != nil {
		c.answer(ctx, callback.ID, c.errorText(err), true)
		return
	}

	var text string
	switch req.Status {
	case model.TakeoverStatusApproved:
		text = fmt.Sprintf("✅ Handed over to %s.", html.EscapeString(req.RequesterName))
	case model.TakeoverStatusDeclined:
		text = fmt.Sprintf("❌ Declined %s.", html.EscapeString(req.RequesterName))
	default:
		text = "⌛ This request has expired."
	}
	c.answer(ctx, callback.ID, "", false)
	c.reply(ctx, chatOf(callback), text)
}

// errorText turns service errors into messages for the chat.
func (c *BotController) errorText(err error) string {
	settings := c.slots.Settings()
	switch {
	case errors.Is(err, service.ErrNotLinked):
		return "🔗 Link your account first: <code>/link &lt;token&gt;</code>"
	case errors.Is(err, service.ErrDailyLimitExceeded), errors.Is(err, calendar.ErrSelectionFull):
		return fmt.Sprintf("You can only book up to %d hours per day", settings.DailyHours)
	case errors.Is(err, service.ErrWeeklyLimitExceeded):
		return fmt.Sprintf("You can only book %d slots per week", settings.WeeklySlots)
	case errors.Is(err, service.ErrSlotConflict), errors.Is(err, calendar.ErrCellBooked):
		return "That time overlaps an existing booking"
	case errors.Is(err, calendar.ErrCellOwnBooking):
		return "You already have that hour booked"
	case errors.Is(err, calendar.ErrCellPast):
		return "That hour has already started"
	case errors.Is(err, service.ErrAlreadyLive):
		return "Another DJ is live right now. Try /takeover."
	case errors.Is(err, service.ErrTargetNotLive):
		return "Nobody is live right now."
	case errors.Is(err, service.ErrDuplicateRequest):
		return "You already have a pending request."
	case errors.Is(err, service.ErrRequestLimitExceeded):
		return "You have asked too many times for this stream."
	case errors.Is(err, service.ErrSelfTakeover):
		return "You cannot take over your own stream."
	case errors.Is(err, service.ErrKeyNotActive):
		return fmt.Sprintf("Your slot opens %d minutes before it starts.", int(settings.StreamKeyReveal.Minutes()))
	case errors.Is(err, service.ErrGoLiveDisabled):
		return "Going live is disabled right now."
	case errors.Is(err, service.ErrTakeoverDisabled):
		return "Takeovers are disabled right now."
	case errors.Is(err, service.ErrUnauthorized):
		return "You are not allowed to do that."
	case errors.Is(err, service.ErrNotFound):
		return "Not found."
	case errors.Is(err, service.ErrInvalidSelection), errors.Is(err, service.ErrInvalidTransition):
		return "❌ " + err.Error()
	default:
		return "❌ Something went wrong. Try again later."
	}
}
