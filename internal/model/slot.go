package model

import "time"

type SlotStatus string

const (
	SlotStatusConfirmed SlotStatus = "confirmed" // Booked, waiting for go-live
	SlotStatusLive      SlotStatus = "live"      // Currently broadcasting
	SlotStatusCompleted SlotStatus = "completed" // Ended by the DJ or by the expiry sweep
	SlotStatusCancelled SlotStatus = "cancelled" // Cancelled before going live
)

// slotTransitions lists every legal status edge. Nothing leads back to confirmed.
var slotTransitions = map[SlotStatus][]SlotStatus{
	SlotStatusConfirmed: {SlotStatusLive, SlotStatusCancelled, SlotStatusCompleted},
	SlotStatusLive:      {SlotStatusCompleted, SlotStatusCancelled},
}

// CanTransitionTo reports whether a slot in status s may move to next.
// confirmed -> completed is only taken by the expiry sweep for slots that never went live.
func (s SlotStatus) CanTransitionTo(next SlotStatus) bool {
	for _, allowed := range slotTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s SlotStatus) IsTerminal() bool {
	return s == SlotStatusCompleted || s == SlotStatusCancelled
}

// IsBlocking reports whether a slot in this status occupies its time window.
func (s SlotStatus) IsBlocking() bool {
	return s == SlotStatusConfirmed || s == SlotStatusLive
}

// Slot is one booked, live or finished broadcast window.
type Slot struct {
	ID           string     `json:"id"`
	DJID         string     `json:"djId"`
	DJName       string     `json:"djName"`
	StreamTitle  string     `json:"streamTitle"`
	Genre        string     `json:"genre"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      time.Time  `json:"endTime"`
	Duration     int        `json:"duration"` // minutes, kept for display
	StreamKey    string     `json:"streamKey,omitempty"`
	KeyActive    bool       `json:"keyActive"`
	Status       SlotStatus `json:"status"`
	Instant      bool       `json:"instant"` // created by "Go Live Now"
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	HandedOverTo *string    `json:"handedOverTo,omitempty"` // requester of an approved takeover
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Overlaps reports whether the slot's [StartTime, EndTime) intersects [start, end).
func (s *Slot) Overlaps(start, end time.Time) bool {
	return Overlaps(s.StartTime, s.EndTime, start, end)
}

// Overlaps is the half-open interval intersection test shared by the calendar and booking checks.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Public returns a copy safe to show to anyone: the stream key is stripped.
func (s *Slot) Public() *Slot {
	cp := *s
	cp.StreamKey = ""
	return &cp
}

// PlaybackCredentials is what a DJ needs to point their encoder at the ingest server.
type PlaybackCredentials struct {
	ServerURL string `json:"serverUrl"`
	StreamKey string `json:"streamKey"`
}
