package model

import "time"

type DJ struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TelegramID *int64    `json:"telegramId"` // nil until the DJ links the bot
	IsAdmin    bool      `json:"isAdmin"`
	CreatedAt  time.Time `json:"createdAt"`
}
