package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"go.uber.org/zap"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Success: false, Error: message})
}

// domainErrors maps each service sentinel to an HTTP status and the message
// shown to the DJ.
var domainErrors = []struct {
	err     error
	status  int
	message func(h *Handler) string
}{
	{service.ErrDailyLimitExceeded, http.StatusConflict, func(h *Handler) string {
		return fmt.Sprintf("You can only book up to %d hours per day", h.slots.Settings().DailyHours)
	}},
	{service.ErrWeeklyLimitExceeded, http.StatusConflict, func(h *Handler) string {
		return fmt.Sprintf("You can only book %d slots per week", h.slots.Settings().WeeklySlots)
	}},
	{service.ErrSlotConflict, http.StatusConflict, constant("That time overlaps an existing booking")},
	{service.ErrAlreadyLive, http.StatusConflict, constant("Someone else is already live")},
	{service.ErrTargetNotLive, http.StatusConflict, constant("That DJ is not live right now")},
	{service.ErrDuplicateRequest, http.StatusConflict, constant("You already have a pending takeover request")},
	{service.ErrRequestLimitExceeded, http.StatusTooManyRequests, constant("Too many takeover requests for this stream")},
	{service.ErrSelfTakeover, http.StatusBadRequest, constant("You cannot take over your own stream")},
	{service.ErrUnauthorized, http.StatusForbidden, constant("You are not allowed to do that")},
	{service.ErrNotFound, http.StatusNotFound, constant("Not found")},
	{service.ErrInvalidTransition, http.StatusConflict, constant("The slot cannot do that in its current state")},
	{service.ErrKeyNotActive, http.StatusForbidden, constant("Stream key is not active right now")},
	{service.ErrGoLiveDisabled, http.StatusForbidden, constant("Going live is not allowed right now")},
	{service.ErrTakeoverDisabled, http.StatusForbidden, constant("Takeovers are disabled")},
}

func constant(msg string) func(*Handler) string {
	return func(*Handler) string { return msg }
}

// fail writes the response for a service error. Unknown errors are logged
// and reported as a generic failure.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrInvalidSelection) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			writeError(w, d.status, d.message(h))
			return
		}
	}

	h.logger.Error("Request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Something went wrong, please try again")
}
