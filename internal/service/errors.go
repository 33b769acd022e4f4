package service

import "errors"

// Every operation validates before it mutates anything, so a returned
// sentinel means no state changed.
var (
	ErrDailyLimitExceeded   = errors.New("daily streaming limit exceeded")
	ErrWeeklyLimitExceeded  = errors.New("weekly booking limit exceeded")
	ErrSlotConflict         = errors.New("slot conflicts with an existing booking")
	ErrAlreadyLive          = errors.New("another stream is already live")
	ErrTargetNotLive        = errors.New("that DJ is not live")
	ErrDuplicateRequest     = errors.New("a takeover request is already pending")
	ErrRequestLimitExceeded = errors.New("too many takeover requests for this stream")
	ErrUnauthorized         = errors.New("not allowed")
	ErrNotFound             = errors.New("not found")
	ErrInvalidSelection     = errors.New("invalid selection")
	ErrInvalidTransition    = errors.New("slot cannot change to that status")
	ErrKeyNotActive         = errors.New("stream key is not active")
	ErrGoLiveDisabled       = errors.New("going live is disabled")
	ErrTakeoverDisabled     = errors.New("takeovers are disabled")
	ErrSelfTakeover         = errors.New("you cannot take over your own stream")
	ErrNotLinked            = errors.New("telegram account is not linked to a DJ")
)
