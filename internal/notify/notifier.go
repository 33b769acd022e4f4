// Package notify delivers takeover and live-status events out of band.
package notify

import (
	"context"
	"errors"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
)

// Notifier is the push channel used by the slot and takeover services.
// Errors are reported to the caller, who only logs them.
type Notifier interface {
	TakeoverRequested(ctx context.Context, req *model.TakeoverRequest) error
	TakeoverApproved(ctx context.Context, req *model.TakeoverRequest, creds model.PlaybackCredentials) error
	TakeoverDeclined(ctx context.Context, req *model.TakeoverRequest) error
	LiveChanged(ctx context.Context, slot *model.Slot) error
}

// Callback data prefixes for the takeover buttons. The suffix is the requester id.
const (
	CallbackTakeoverApprove = "takeover_approve:"
	CallbackTakeoverDecline = "takeover_decline:"
)

// Multi fans every event out to all notifiers and joins their errors.
type Multi []Notifier

func (m Multi) TakeoverRequested(ctx context.Context, req *model.TakeoverRequest) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.TakeoverRequested(ctx, req))
	}
	return errors.Join(errs...)
}

func (m Multi) TakeoverApproved(ctx context.Context, req *model.TakeoverRequest, creds model.PlaybackCredentials) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.TakeoverApproved(ctx, req, creds))
	}
	return errors.Join(errs...)
}

func (m Multi) TakeoverDeclined(ctx context.Context, req *model.TakeoverRequest) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.TakeoverDeclined(ctx, req))
	}
	return errors.Join(errs...)
}

func (m Multi) LiveChanged(ctx context.Context, slot *model.Slot) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.LiveChanged(ctx, slot))
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) TakeoverRequested(context.Context, *model.TakeoverRequest) error { return nil }
func (Nop) TakeoverApproved(context.Context, *model.TakeoverRequest, model.PlaybackCredentials) error {
	return nil
}
func (Nop) TakeoverDeclined(context.Context, *model.TakeoverRequest) error { return nil }
func (Nop) LiveChanged(context.Context, *model.Slot) error                 { return nil }
