package model

import "time"

// DailyUsage accumulates broadcast minutes per DJ per calendar day.
type DailyUsage struct {
	DJID          string    `json:"djId"`
	Day           time.Time `json:"day"` // midnight in the station timezone
	StreamMinutes int       `json:"streamMinutesToday"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
