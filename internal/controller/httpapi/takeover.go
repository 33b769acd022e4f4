package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/DJCodeOne/freshwax-sub008/internal/service"
)

const (
	actionRequest = "request"
	actionApprove = "approve"
	actionDecline = "decline"

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// TakeoverRequest is the body of POST /api/takeover.
type TakeoverRequest struct {
	Action        string `json:"action"`
	RequesterID   string `json:"requesterId"`
	RequesterName string `json:"requesterName"`
	TargetDJID    string `json:"targetDjId"`
	TargetDJName  string `json:"targetDjName"`
}

// Takeover handles POST /api/takeover. A request is always filed as the
// caller; approve and decline act on the caller's own stream unless an admin
// names another target.
func (h *Handler) Takeover(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	var req TakeoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		result *model.TakeoverRequest
		err    error
	)
	switch req.Action {
	case actionRequest:
		if req.RequesterID != "" && req.RequesterID != caller.ID {
			h.fail(w, r, service.ErrUnauthorized)
			return
		}
		if req.TargetDJID == "" {
			writeError(w, http.StatusBadRequest, "targetDjId is required")
			return
		}
		if req.RequesterName != "" {
			caller.Name = req.RequesterName
		}
		result, err = h.takeovers.Request(r.Context(), caller, service.TakeoverTarget{
			ID:   req.TargetDJID,
			Name: req.TargetDJName,
		})

	case actionApprove, actionDecline:
		if req.RequesterID == "" {
			writeError(w, http.StatusBadRequest, "requesterId is required")
			return
		}
		target := req.TargetDJID
		if target == "" {
			target = caller.ID
		}
		if req.Action == actionApprove {
			result, err = h.takeovers.Approve(r.Context(), caller, req.RequesterID, target)
		} else {
			result, err = h.takeovers.Decline(r.Context(), caller, req.RequesterID, target)
		}

	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"request": result,
		"status":  result.Status,
	})
}

// PendingTakeovers handles GET /api/takeover/pending for the caller as target.
func (h *Handler) PendingTakeovers(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	requests, err := h.takeovers.PendingForTarget(r.Context(), caller.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"requests": requests,
	})
}

// MyTakeovers handles GET /api/takeover/mine?limit=.
func (h *Handler) MyTakeovers(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	requests, err := h.takeovers.ForRequester(r.Context(), caller.ID, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"requests": requests,
	})
}
