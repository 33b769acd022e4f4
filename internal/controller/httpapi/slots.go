package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/calendar"
	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	dateLayout        = "2006-01-02"
	defaultListWindow = 7 * 24 * time.Hour
)

func publicSlots(slots []*model.Slot) []*model.Slot {
	out := make([]*model.Slot, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Public())
	}
	return out
}

// ListSlots handles GET /api/slots?from=&to= (RFC 3339). Defaults to the next seven days.
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	from := h.slots.Now()
	to := from.Add(defaultListWindow)

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
			return
		}
		to = from.Add(defaultListWindow)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
			return
		}
	}

	slots, err := h.slots.ListWindow(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"slots":   publicSlots(slots),
	})
}

// GetSlot handles GET /api/slots/{id}.
func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := h.slots.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"slot":    slot.Public(),
	})
}

// BookRequest is the body of POST /api/slots: the calendar day plus the
// selected cell indexes.
type BookRequest struct {
	Date   string `json:"date"`
	Cells  []int  `json:"cells"`
	DJName string `json:"djName"`
	Title  string `json:"title"`
	Genre  string `json:"genre"`
}

// BookSlots handles POST /api/slots.
func (h *Handler) BookSlots(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	day, err := h.parseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must look like 2006-01-02")
		return
	}
	if req.DJName != "" {
		caller.Name = req.DJName
	}

	slots, err := h.slots.BookCells(r.Context(), caller, service.CellBooking{
		Day:   day,
		Cells: req.Cells,
		Title: req.Title,
		Genre: req.Genre,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ids := make([]string, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.ID)
	}
	h.logger.Info("Booking accepted", zap.String("dj_id", caller.ID), zap.Strings("slot_ids", ids))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"slots":   publicSlots(slots),
	})
}

// CancelSlot handles DELETE /api/slots/{id}.
func (h *Handler) CancelSlot(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	slot, err := h.slots.CancelBooking(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"slotId":  slot.ID,
		"status":  slot.Status,
	})
}

// Credentials handles GET /api/slots/{id}/credentials.
func (h *Handler) Credentials(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	creds, err := h.slots.Credentials(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"credentials": creds,
	})
}

// Calendar handles GET /api/calendar?date=&selected=5,7.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	cal, ok := h.calendarFromQuery(w, r)
	if !ok {
		return
	}
	view, err := h.slots.View(r.Context(), cal, caller.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"calendar": view,
	})
}

// CalendarPNG handles GET /api/calendar.png?date=&selected=.
func (h *Handler) CalendarPNG(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	cal, ok := h.calendarFromQuery(w, r)
	if !ok {
		return
	}
	png, err := h.slots.RenderCalendar(r.Context(), cal, caller.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) calendarFromQuery(w http.ResponseWriter, r *http.Request) (*calendar.Calendar, bool) {
	day, err := h.parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must look like 2006-01-02")
		return nil, false
	}
	cal := h.slots.NewCalendar(day)

	if v := r.URL.Query().Get("selected"); v != "" {
		var idxs []int
		for _, part := range strings.Split(v, ",") {
			idx, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				writeError(w, http.StatusBadRequest, "selected must be a comma separated list of cells")
				return nil, false
			}
			idxs = append(idxs, idx)
		}
		cal.Select(idxs...)
	}
	return cal, true
}

// parseDay reads a station-local date. Empty means today.
func (h *Handler) parseDay(v string) (time.Time, error) {
	if v == "" {
		return h.slots.Now(), nil
	}
	return time.ParseInLocation(dateLayout, v, h.slots.Location())
}
