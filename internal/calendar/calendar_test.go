package calendar

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func at(loc *time.Location, day, hour int) time.Time {
	return time.Date(2026, 10, day, hour, 0, 0, 0, loc)
}

func TestCalendar_grid(t *testing.T) {
	loc := london(t)
	cal := New(at(loc, 16, 12), loc, 2)

	cells := cal.Cells(at(loc, 16, 0), nil, "dj1")
	require.Len(t, cells, CellCount)

	assert.Equal(t, at(loc, 16, 9), cells[0].Start)
	assert.Equal(t, "09:00", cells[0].Label())
	assert.Equal(t, at(loc, 17, 7), cells[CellCount-1].Start)
	assert.Equal(t, at(loc, 17, 8), cells[CellCount-1].End)

	start, end := cal.Window()
	assert.Equal(t, at(loc, 16, 9), start)
	assert.Equal(t, at(loc, 17, 8), end)

	for _, c := range cells {
		assert.Equal(t, CellAvailable, c.State)
	}
}

func TestCalendar_classification(t *testing.T) {
	loc := london(t)
	cal := New(at(loc, 16, 0), loc, 2)
	now := at(loc, 16, 12).Add(30 * time.Minute)

	slots := []*model.Slot{
		{ID: "a", DJID: "dj2", DJName: "Other", StartTime: at(loc, 16, 14), EndTime: at(loc, 16, 16), Status: model.SlotStatusConfirmed},
		{ID: "b", DJID: "dj1", DJName: "Me", StartTime: at(loc, 16, 20), EndTime: at(loc, 16, 21), Status: model.SlotStatusLive},
		{ID: "c", DJID: "dj2", StartTime: at(loc, 16, 22), EndTime: at(loc, 16, 23), Status: model.SlotStatusCancelled},
	}
	require.NoError(t, cal.Toggle(cal.IndexAt(at(loc, 16, 18)), now, slots, "dj1"))

	cells := cal.Cells(now, slots, "dj1")
	state := func(hour int) CellState {
		return cells[cal.IndexAt(at(loc, 16, hour))].State
	}

	assert.Equal(t, CellPast, state(9))
	assert.Equal(t, CellPast, state(12), "a cell that already started is past")
	assert.Equal(t, CellAvailable, state(13))
	assert.Equal(t, CellBooked, state(14))
	assert.Equal(t, CellBooked, state(15))
	assert.Equal(t, CellAvailable, state(16), "slot end is exclusive")
	assert.Equal(t, CellSelected, state(18))
	assert.Equal(t, CellOwnBooking, state(20))
	assert.Equal(t, CellAvailable, state(22), "cancelled slots do not block")

	assert.Equal(t, "Other", cells[cal.IndexAt(at(loc, 16, 14))].DJName)
}

func TestCalendar_nonAdjacentSelection(t *testing.T) {
	loc := london(t)
	cal := New(at(loc, 16, 0), loc, 2)
	now := at(loc, 16, 8)

	require.NoError(t, cal.Toggle(cal.IndexAt(at(loc, 16, 14)), now, nil, "dj1"))
	require.NoError(t, cal.Toggle(cal.IndexAt(at(loc, 16, 16)), now, nil, "dj1"))

	cells := cal.Cells(now, nil, "dj1")
	assert.Equal(t, CellSelected, cells[cal.IndexAt(at(loc, 16, 14))].State)
	assert.Equal(t, CellSelected, cells[cal.IndexAt(at(loc, 16, 16))].State)
	assert.Len(t, cal.Selected(), 2)
	assert.Equal(t, "2 separate slots", cal.Summary())
	assert.Len(t, cal.Ranges(), 2)

	err := cal.Toggle(cal.IndexAt(at(loc, 16, 18)), now, nil, "dj1")
	assert.ErrorIs(t, err, ErrSelectionFull)
	assert.Contains(t, err.Error(), "2 hours per day")
	assert.Len(t, cal.Selected(), 2)
}

func TestCalendar_adjacentSelection(t *testing.T) {
	loc := london(t)
	cal := New(at(loc, 16, 0), loc, 2)
	now := at(loc, 16, 8)

	require.NoError(t, cal.Toggle(5, now, nil, "dj1"))
	assert.Equal(t, "1 hour selected", cal.Summary())
	require.NoError(t, cal.Toggle(6, now, nil, "dj1"))

	assert.Equal(t, "continuous 2-hour block", cal.Summary())
	ranges := cal.Ranges()
	require.Len(t, ranges, 1)
	assert.Equal(t, at(loc, 16, 14), ranges[0].Start)
	assert.Equal(t, at(loc, 16, 16), ranges[0].End)
	assert.Equal(t, 120, ranges[0].Minutes())
}

func TestCalendar_toggleRejections(t *testing.T) {
	loc := london(t)
	cal := New(at(loc, 16, 0), loc, 2)
	now := at(loc, 16, 11)
	slots := []*model.Slot{
		{ID: "a", DJID: "dj2", StartTime: at(loc, 16, 14), EndTime: at(loc, 16, 15), Status: model.SlotStatusConfirmed},
		{ID: "b", DJID: "dj1", StartTime: at(loc, 16, 15), EndTime: at(loc, 16, 16), Status: model.SlotStatusConfirmed},
	}

	assert.ErrorIs(t, cal.Toggle(0, now, slots, "dj1"), ErrCellPast)
	assert.ErrorIs(t, cal.Toggle(5, now, slots, "dj1"), ErrCellBooked)
	assert.ErrorIs(t, cal.Toggle(6, now, slots, "dj1"), ErrCellOwnBooking)
	assert.ErrorIs(t, cal.Toggle(-1, now, slots, "dj1"), ErrCellOutOfRange)
	assert.ErrorIs(t, cal.Toggle(CellCount, now, slots, "dj1"), ErrCellOutOfRange)
	assert.Empty(t, cal.Selected())
}

func TestCalendar_deselectAlwaysAllowed(t *testing.T) {
	loc := london(t)
	cal := New(at(loc, 16, 0), loc, 2)

	require.NoError(t, cal.Toggle(5, at(loc, 16, 8), nil, "dj1"))
	// the hour has since started, removing it is still fine
	require.NoError(t, cal.Toggle(5, at(loc, 16, 15), nil, "dj1"))
	assert.Empty(t, cal.Selected())
}

func TestCalendar_navigationClearsSelection(t *testing.T) {
	loc := london(t)
	cal := New(at(loc, 16, 0), loc, 2)
	now := at(loc, 16, 8)

	require.NoError(t, cal.Toggle(5, now, nil, "dj1"))
	cal.Shift(1)
	assert.Empty(t, cal.Selected())
	assert.Equal(t, at(loc, 17, 0), cal.Anchor())

	require.NoError(t, cal.Toggle(5, now, nil, "dj1"))
	cal.Today(now)
	assert.Empty(t, cal.Selected())
	assert.Equal(t, at(loc, 16, 0), cal.Anchor())
}

func TestCalendar_dstChange(t *testing.T) {
	loc := london(t)
	// clocks go back at 02:00 on 25 October 2026
	cal := New(at(loc, 24, 0), loc, 2)
	cells := cal.Cells(at(loc, 1, 0), nil, "dj1")

	require.Len(t, cells, CellCount)
	assert.Equal(t, "07:00", cells[CellCount-1].Label())
	for _, c := range cells {
		assert.True(t, c.End.After(c.Start))
	}
}

func TestCalendar_RenderPNG(t *testing.T) {
	loc := london(t)
	cal := New(at(loc, 16, 0), loc, 2)
	now := at(loc, 16, 10)
	slots := []*model.Slot{
		{ID: "a", DJID: "dj2", DJName: "Other", StartTime: at(loc, 16, 14), EndTime: at(loc, 16, 16), Status: model.SlotStatusConfirmed},
	}
	require.NoError(t, cal.Toggle(8, now, slots, "dj1"))

	data, err := cal.RenderPNG(now, slots, "dj1")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, headerHeight+CellCount*rowHeight+legendHeight, img.Bounds().Dy())
}
