package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MessageSender is the part of *bot.Bot the notifier uses.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// DJDirectory resolves a DJ id to its linked Telegram account.
type DJDirectory interface {
	GetByID(ctx context.Context, id string) (*model.DJ, error)
}

// Telegram sends events to DJs who linked the bot. DJs without a link are skipped.
type Telegram struct {
	sender MessageSender
	djs    DJDirectory
}

func NewTelegram(sender MessageSender, djs DJDirectory) *Telegram {
	return &Telegram{sender: sender, djs: djs}
}

func (t *Telegram) chatID(ctx context.Context, djID string) (int64, bool, error) {
	dj, err := t.djs.GetByID(ctx, djID)
	if err != nil {
		return 0, false, fmt.Errorf("get dj: %w", err)
	}
	if dj == nil || dj.TelegramID == nil {
		return 0, false, nil
	}
	return *dj.TelegramID, true, nil
}

func (t *Telegram) send(ctx context.Context, djID, text string, markup models.ReplyMarkup) error {
	chatID, ok, err := t.chatID(ctx, djID)
	if err != nil || !ok {
		return err
	}

	_, err = t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func (t *Telegram) TakeoverRequested(ctx context.Context, req *model.TakeoverRequest) error {
	text := fmt.Sprintf("🎛 <b>%s</b> wants to take over your stream.\nThe request expires in 5 minutes.",
		html.EscapeString(req.RequesterName))

	markup := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "✅ Approve", CallbackData: CallbackTakeoverApprove + req.RequesterID},
			{Text: "❌ Decline", CallbackData: CallbackTakeoverDecline + req.RequesterID},
		}},
	}
	return t.send(ctx, req.TargetDJID, text, markup)
}

func (t *Telegram) TakeoverApproved(ctx context.Context, req *model.TakeoverRequest, creds model.PlaybackCredentials) error {
	text := fmt.Sprintf("✅ <b>%s</b> approved your takeover.\n\nServer: <code>%s</code>\nStream key: <code>%s</code>",
		html.EscapeString(req.TargetDJName),
		html.EscapeString(creds.ServerURL),
		html.EscapeString(creds.StreamKey))
	return t.send(ctx, req.RequesterID, text, nil)
}

func (t *Telegram) TakeoverDeclined(ctx context.Context, req *model.TakeoverRequest) error {
	text := fmt.Sprintf("❌ <b>%s</b> declined your takeover request.", html.EscapeString(req.TargetDJName))
	return t.send(ctx, req.RequesterID, text, nil)
}

// LiveChanged confirms go-live and end to the slot owner.
func (t *Telegram) LiveChanged(ctx context.Context, slot *model.Slot) error {
	var text string
	switch slot.Status {
	case model.SlotStatusLive:
		text = fmt.Sprintf("🔴 You are live: <b>%s</b> until %s UTC.",
			html.EscapeString(slot.StreamTitle), slot.EndTime.UTC().Format("15:04"))
	case model.SlotStatusCompleted:
		text = fmt.Sprintf("⏹ Stream ended: <b>%s</b>.", html.EscapeString(slot.StreamTitle))
	default:
		return nil
	}
	return t.send(ctx, slot.DJID, text, nil)
}
