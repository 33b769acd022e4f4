package model

import "time"

type TakeoverStatus string

const (
	TakeoverStatusPending  TakeoverStatus = "pending"
	TakeoverStatusApproved TakeoverStatus = "approved"
	TakeoverStatusDeclined TakeoverStatus = "declined"
	TakeoverStatusExpired  TakeoverStatus = "expired"
)

// TakeoverRequest is one DJ asking the currently live DJ to hand over the stream.
// A single row is looked up both by target and by requester, so both sides always
// observe the same status.
type TakeoverRequest struct {
	ID            string         `json:"id"`
	SlotID        string         `json:"slotId"` // live slot at the time of the request
	RequesterID   string         `json:"requesterId"`
	RequesterName string         `json:"requesterName"`
	TargetDJID    string         `json:"targetDjId"`
	TargetDJName  string         `json:"targetDjName"`
	Status        TakeoverStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	ResolvedAt    *time.Time     `json:"resolvedAt,omitempty"`
}

// IsPending checks if request is still waiting for the target
func (r *TakeoverRequest) IsPending() bool {
	return r.Status == TakeoverStatusPending
}

// IsTerminal checks if request reached approved, declined or expired
func (r *TakeoverRequest) IsTerminal() bool {
	return r.Status != TakeoverStatusPending
}

// IsStale reports whether a pending request has outlived ttl at now.
func (r *TakeoverRequest) IsStale(now time.Time, ttl time.Duration) bool {
	return r.IsPending() && now.Sub(r.CreatedAt) > ttl
}
