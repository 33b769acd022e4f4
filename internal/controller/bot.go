package controller

import (
	"context"
	"errors"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/controller/state"
	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const sessionTTL = 30 * time.Minute

// API is the part of *bot.Bot the handlers call.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Identifier resolves a web session token pasted into /link to a DJ.
type Identifier func(token string) (service.Caller, error)

type BotDeps struct {
	DJs       *service.DJService
	Slots     *service.SlotService
	Takeovers *service.TakeoverService
	Identify  Identifier
}

type BotController struct {
	bot       *bot.Bot
	api       API
	djs       *service.DJService
	slots     *service.SlotService
	takeovers *service.TakeoverService
	identify  Identifier
	sessions  *state.Manager
	logger    *zap.Logger
}

func NewBotController(botInstance *bot.Bot, deps BotDeps, logger *zap.Logger) *BotController {
	c := newBotController(botInstance, deps, logger)
	c.bot = botInstance
	return c
}

func newBotController(api API, deps BotDeps, logger *zap.Logger) *BotController {
	return &BotController{
		api:       api,
		djs:       deps.DJs,
		slots:     deps.Slots,
		takeovers: deps.Takeovers,
		identify:  deps.Identify,
		sessions:  state.NewManager(sessionTTL),
		logger:    logger,
	}
}

// RegisterHandlers wires commands and callbacks and publishes the command menu.
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/link", bot.MatchTypePrefix, c.HandleLink)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/calendar", bot.MatchTypeExact, c.HandleCalendar)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.HandleMyBookings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/live", bot.MatchTypeExact, c.HandleLive)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/golive", bot.MatchTypeExact, c.HandleGoLive)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/endstream", bot.MatchTypeExact, c.HandleEndStream)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/takeover", bot.MatchTypeExact, c.HandleTakeover)

	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.HandleCallbackQuery)

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "calendar", Description: "📅 Book a slot"},
		{Command: "mybookings", Description: "🎧 My upcoming slots"},
		{Command: "live", Description: "🔴 Who is on air"},
		{Command: "golive", Description: "▶️ Go live"},
		{Command: "endstream", Description: "⏹ End my stream"},
		{Command: "takeover", Description: "🎛 Ask the live DJ for a takeover"},
		{Command: "link", Description: "🔗 Link your Fresh Wax account"},
		{Command: "help", Description: "❓ Help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start blocks polling for updates until ctx is done.
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}

// PruneSessions drops calendar sessions idle for longer than the session ttl.
func (c *BotController) PruneSessions(now time.Time) int {
	return c.sessions.Prune(now)
}

func (c *BotController) reply(ctx context.Context, chatID int64, text string) {
	c.send(ctx, chatID, text, nil)
}

func (c *BotController) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		c.logger.Warn("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (c *BotController) answer(ctx context.Context, callbackID, text string, alert bool) {
	_, err := c.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		c.logger.Debug("Failed to answer callback", zap.Error(err))
	}
}

// caller resolves the DJ behind a Telegram account and tells the user to link
// when there is none.
func (c *BotController) caller(ctx context.Context, chatID, telegramID int64) (service.Caller, bool) {
	caller, err := c.djs.CallerFor(ctx, telegramID)
	if err == nil {
		return caller, true
	}
	if !errors.Is(err, service.ErrNotLinked) {
		c.logger.Error("Failed to resolve DJ", zap.Int64("telegram_id", telegramID), zap.Error(err))
	}
	c.reply(ctx, chatID, c.errorText(err))
	return service.Caller{}, false
}
