// Package httpapi exposes the booking, go-live and takeover operations over
// JSON, plus the ingest key hook and the dashboard WebSocket.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/metrics"
	"github.com/DJCodeOne/freshwax-sub008/internal/notify"
	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const refreshTimeout = 2 * time.Second

type Handler struct {
	slots     *service.SlotService
	takeovers *service.TakeoverService
	sweeper   *service.Sweeper
	hub       *notify.Hub
	auth      *Authenticator
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewHandler(
	slots *service.SlotService,
	takeovers *service.TakeoverService,
	sweeper *service.Sweeper,
	hub *notify.Hub,
	auth *Authenticator,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		slots:     slots,
		takeovers: takeovers,
		sweeper:   sweeper,
		hub:       hub,
		auth:      auth,
		metrics:   m,
		logger:    logger,
	}
}

// Routes builds the chi router. /ws sits outside the logging and metrics
// wrappers because the upgrade needs the raw http.Hijacker.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.With(h.auth.RequireDJ).Get("/ws", h.WebSocket)

	r.Group(func(r chi.Router) {
		r.Use(RequestLogger(h.logger))
		r.Use(metrics.RequestMiddleware(h.metrics))

		r.Get("/health", h.Health)
		r.Get("/metrics", h.Metrics)

		r.Route("/api", func(r chi.Router) {
			r.Post("/stream-keys/validate", h.ValidateStreamKey)
			r.Get("/livestream/current", h.CurrentLive)
			r.Get("/slots", h.ListSlots)
			r.Get("/slots/{id}", h.GetSlot)

			r.Group(func(r chi.Router) {
				r.Use(h.auth.RequireDJ)

				r.Post("/slots", h.BookSlots)
				r.Delete("/slots/{id}", h.CancelSlot)
				r.Get("/slots/{id}/credentials", h.Credentials)
				r.Get("/calendar", h.Calendar)
				r.Get("/calendar.png", h.CalendarPNG)
				r.Post("/livestream", h.Livestream)
				r.Post("/takeover", h.Takeover)
				r.Get("/takeover/pending", h.PendingTakeovers)
				r.Get("/takeover/mine", h.MyTakeovers)

				r.With(RequireAdmin).Post("/admin/sweep", h.Sweep)
			})
		})
	})
	return r
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics. The live gauge is refreshed from the store first.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.metrics.Handler(func() {
		ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
		defer cancel()
		if _, err := h.slots.Current(ctx); err != nil {
			h.logger.Warn("Failed to refresh live gauge", zap.Error(err))
		}
	}).ServeHTTP(w, r)
}

// WebSocket handles GET /ws?token=.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	h.hub.Serve(w, r, caller.ID)
}

// Sweep handles POST /api/admin/sweep.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	res, err := h.sweeper.Run(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"slotsCompleted":   res.SlotsCompleted,
		"takeoversExpired": res.TakeoversExpired,
	})
}
