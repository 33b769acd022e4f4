package service

import (
	"context"
	"testing"

	"github.com/DJCodeOne/freshwax-sub008/internal/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookCells_separateSlots(t *testing.T) {
	h := newHarness(t, londonAt(t, 8, 0))

	slots, err := h.svc.BookCells(context.Background(), djA, CellBooking{Day: h.now, Cells: []int{5, 7}})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].StartTime.Equal(h.at(14, 0)))
	assert.True(t, slots[1].StartTime.Equal(h.at(16, 0)))
}

func TestBookCells_adjacentCellsMerge(t *testing.T) {
	h := newHarness(t, londonAt(t, 8, 0))

	slots, err := h.svc.BookCells(context.Background(), djA, CellBooking{Day: h.now, Cells: []int{6, 5, 5}})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 120, slots[0].Duration)
}

func TestBookCells_rejections(t *testing.T) {
	h := newHarness(t, londonAt(t, 12, 30))
	_, err := book(h, djB, hours(h, 18, 19))
	require.NoError(t, err)

	tests := []struct {
		name    string
		cells   []int
		wantErr error
	}{
		{name: "third hour", cells: []int{10, 12, 14}, wantErr: ErrDailyLimitExceeded},
		{name: "booked by someone else", cells: []int{9}, wantErr: ErrSlotConflict},
		{name: "past", cells: []int{3}, wantErr: ErrInvalidSelection},
		{name: "outside grid", cells: []int{23}, wantErr: ErrInvalidSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.BookCells(context.Background(), djA, CellBooking{Day: h.now, Cells: tt.cells})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestView(t *testing.T) {
	h := newHarness(t, londonAt(t, 12, 30))
	_, err := book(h, djB, hours(h, 18, 19))
	require.NoError(t, err)

	cal := h.svc.NewCalendar(h.now)
	require.NoError(t, h.svc.ToggleCell(context.Background(), cal, 5, djA.ID))
	require.NoError(t, h.svc.ToggleCell(context.Background(), cal, 7, djA.ID))

	view, err := h.svc.View(context.Background(), cal, djA.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", view.Day)
	assert.Equal(t, "2 separate slots", view.Summary)
	assert.Equal(t, []int{5, 7}, view.Selected)
	require.Len(t, view.Cells, calendar.CellCount)
	assert.Equal(t, calendar.CellPast, view.Cells[3].State)
	assert.Equal(t, calendar.CellBooked, view.Cells[9].State)
	assert.Equal(t, calendar.CellSelected, view.Cells[5].State)

	err = h.svc.ToggleCell(context.Background(), cal, 10, djA.ID)
	assert.ErrorIs(t, err, calendar.ErrSelectionFull)
}
