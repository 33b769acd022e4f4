// Package keyboard builds the inline keyboards the bot attaches to messages.
package keyboard

import (
	"fmt"
	"strconv"

	"github.com/DJCodeOne/freshwax-sub008/internal/calendar"
	"github.com/go-telegram/bot/models"
)

// Callback data for the calendar keyboard.
const (
	CalToggle = "cal_toggle:" // cal_toggle:<cell>
	CalNav    = "cal_nav:"    // cal_nav:-1 or cal_nav:1
	CalToday  = "cal_today"
	CalBook   = "cal_book"
	CalClear  = "cal_clear"
	Noop      = "noop"

	cellsPerRow = 4
)

type Builder struct {
	rows [][]models.InlineKeyboardButton
}

func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row appends a row. Empty rows are ignored.
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// Calendar lays out one button per hour cell followed by the navigation and
// booking rows. Cells that cannot be toggled carry the noop callback.
func Calendar(cells []calendar.Cell, selected int) *models.InlineKeyboardMarkup {
	b := NewBuilder()

	row := make([]models.InlineKeyboardButton, 0, cellsPerRow)
	for _, c := range cells {
		row = append(row, cellButton(c))
		if len(row) == cellsPerRow {
			b.Row(row...)
			row = make([]models.InlineKeyboardButton, 0, cellsPerRow)
		}
	}
	b.Row(row...)

	b.Row(
		Button("◀️", CalNav+"-1"),
		Button("Today", CalToday),
		Button("▶️", CalNav+"1"),
	)
	if selected > 0 {
		b.Row(
			Button(fmt.Sprintf("✅ Book %d h", selected), CalBook),
			Button("✖️ Clear", CalClear),
		)
	}
	return b.Build()
}

func cellButton(c calendar.Cell) models.InlineKeyboardButton {
	label := c.Label()
	switch c.State {
	case calendar.CellPast:
		return Button("·", Noop)
	case calendar.CellBooked:
		return Button("🔒 "+label, Noop)
	case calendar.CellOwnBooking:
		return Button("🎧 "+label, Noop)
	case calendar.CellSelected:
		return Button("✅ "+label, CalToggle+strconv.Itoa(c.Index))
	default:
		return Button(label, CalToggle+strconv.Itoa(c.Index))
	}
}
