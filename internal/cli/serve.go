package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/app"
	"github.com/DJCodeOne/freshwax-sub008/internal/controller"
	"github.com/DJCodeOne/freshwax-sub008/internal/controller/httpapi"
	"github.com/DJCodeOne/freshwax-sub008/internal/notify"
	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the websocket hub and the Telegram bot",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting Fresh Wax scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("timezone", cfg.Timezone),
	)

	var tgBot *bot.Bot
	var extra []func(service.DJStore) notify.Notifier
	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		tgBot = b
		extra = append(extra, func(djs service.DJStore) notify.Notifier {
			return notify.NewTelegram(b, djs)
		})
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, bot disabled")
	}

	st, err := buildStack(ctx, cfg, logger, extra...)
	if err != nil {
		return err
	}
	defer st.Close()

	auth := httpapi.NewAuthenticator(cfg.JWTSecret)

	if tgBot != nil {
		botController := controller.NewBotController(tgBot, controller.BotDeps{
			DJs:       st.djs,
			Slots:     st.slots,
			Takeovers: st.takeovers,
			Identify:  identifyWith(auth),
		}, logger.Named("bot"))
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot command menu not published", zap.Error(err))
		}
		go botController.Start(ctx)
		go pruneSessions(ctx, botController)
	}

	scheduler := app.NewScheduler(st.sweeper, cfg.SweepInterval, logger.Named("scheduler"))
	scheduler.Start(ctx)
	defer scheduler.Stop()

	handler := httpapi.NewHandler(st.slots, st.takeovers, st.sweeper, st.hub, auth, st.metrics, logger.Named("http"))
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// identifyWith lets /link accept the same bearer tokens as the HTTP API.
func identifyWith(auth *httpapi.Authenticator) controller.Identifier {
	return func(token string) (service.Caller, error) {
		claims, err := auth.Parse(token)
		if err != nil {
			return service.Caller{}, err
		}
		return service.Caller{ID: claims.Subject, Name: claims.Name, Admin: claims.Admin}, nil
	}
}

func pruneSessions(ctx context.Context, c *controller.BotController) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if n := c.PruneSessions(now); n > 0 {
				logger.Debug("Pruned calendar sessions", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
