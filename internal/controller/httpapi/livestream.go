package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"go.uber.org/zap"
)

const (
	actionGoLive       = "go_live"
	actionEndStream    = "endStream"
	actionEndStreamAlt = "end_stream"
)

// LivestreamRequest is the body of POST /api/livestream. An empty slotId with
// go_live starts an instant session.
type LivestreamRequest struct {
	Action string `json:"action"`
	SlotID string `json:"slotId"`
	DJName string `json:"djName"`
	Title  string `json:"title"`
	Genre  string `json:"genre"`
}

// Livestream handles POST /api/livestream.
func (h *Handler) Livestream(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	var req LivestreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DJName != "" {
		caller.Name = req.DJName
	}

	switch req.Action {
	case actionGoLive:
		slot, err := h.slots.GoLive(r.Context(), caller, service.GoLiveRequest{
			SlotID: req.SlotID,
			Title:  req.Title,
			Genre:  req.Genre,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"slotId":  slot.ID,
			"status":  slot.Status,
			"endTime": slot.EndTime,
		})

	case actionEndStream, actionEndStreamAlt:
		if req.SlotID == "" {
			writeError(w, http.StatusBadRequest, "slotId is required")
			return
		}
		slot, err := h.slots.EndStream(r.Context(), caller, req.SlotID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"slotId":  slot.ID,
			"status":  slot.Status,
		})

	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

// CurrentLive handles GET /api/livestream/current.
func (h *Handler) CurrentLive(w http.ResponseWriter, r *http.Request) {
	slot, err := h.slots.Current(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if slot == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "live": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"live":    true,
		"slot":    slot.Public(),
	})
}

// ValidateStreamKey handles POST /api/stream-keys/validate, the ingest
// server's on_publish hook. The key arrives in the form field "name"; any
// non-2xx answer makes the ingest server drop the connection.
func (h *Handler) ValidateStreamKey(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	key := r.FormValue("name")
	if key == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	slot, err := h.slots.ValidateKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, service.ErrKeyNotActive) || errors.Is(err, service.ErrNotFound) {
			h.logger.Info("Publish rejected", zap.String("addr", r.RemoteAddr), zap.Error(err))
			writeError(w, http.StatusForbidden, "stream key rejected")
			return
		}
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"slotId":  slot.ID,
		"djId":    slot.DJID,
	})
}
