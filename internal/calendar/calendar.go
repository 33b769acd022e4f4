// Package calendar models the one-day booking grid DJs pick hours from.
//
// The grid runs from 09:00 on the anchor day to 08:00 the next morning in the
// station timezone, one cell per hour. A Calendar holds only the viewer's
// in-progress selection; slots are passed in on every call so each render
// reflects the store as it is now.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
)

const (
	CellCount = 23
	FirstHour = 9
)

type CellState string

const (
	CellPast       CellState = "past"
	CellBooked     CellState = "booked"
	CellOwnBooking CellState = "own-booking"
	CellSelected   CellState = "selected"
	CellAvailable  CellState = "available"
)

var (
	ErrCellOutOfRange = errors.New("cell is outside the grid")
	ErrCellPast       = errors.New("that hour has already started")
	ErrCellBooked     = errors.New("that hour is already booked")
	ErrCellOwnBooking = errors.New("you already have that hour booked")
	ErrSelectionFull  = errors.New("selection limit reached")
)

type Cell struct {
	Index  int       `json:"index"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	State  CellState `json:"state"`
	SlotID string    `json:"slotId,omitempty"`
	DJName string    `json:"djName,omitempty"`
}

// Label is the local start time, e.g. "14:00".
func (c Cell) Label() string {
	return c.Start.Format("15:04")
}

// Range is a booking interval built from one or more adjacent cells.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) Minutes() int {
	return int(r.End.Sub(r.Start) / time.Minute)
}

type Calendar struct {
	loc          *time.Location
	anchor       time.Time
	maxSelection int
	selected     map[int]struct{}
}

// New returns a calendar anchored on the local day containing day.
// maxSelection is the number of hours a DJ may pick, normally the daily cap.
func New(day time.Time, loc *time.Location, maxSelection int) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{
		loc:          loc,
		anchor:       startOfDay(day.In(loc)),
		maxSelection: maxSelection,
		selected:     make(map[int]struct{}),
	}
}

// Anchor is midnight of the displayed day in the station timezone.
func (c *Calendar) Anchor() time.Time {
	return c.anchor
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

func (c *Calendar) MaxSelection() int {
	return c.maxSelection
}

// Window is the interval the grid covers. Callers load slots overlapping it.
func (c *Calendar) Window() (time.Time, time.Time) {
	start, _ := c.cellBounds(0)
	_, end := c.cellBounds(CellCount - 1)
	return start, end
}

func (c *Calendar) cellBounds(idx int) (time.Time, time.Time) {
	y, m, d := c.anchor.Date()
	start := time.Date(y, m, d, FirstHour+idx, 0, 0, 0, c.loc)
	end := time.Date(y, m, d, FirstHour+idx+1, 0, 0, 0, c.loc)
	return start, end
}

// IndexAt returns the cell containing t, or -1.
func (c *Calendar) IndexAt(t time.Time) int {
	for i := 0; i < CellCount; i++ {
		start, end := c.cellBounds(i)
		if !t.Before(start) && t.Before(end) {
			return i
		}
	}
	return -1
}

// Cells classifies every hour of the grid for viewerID.
func (c *Calendar) Cells(now time.Time, slots []*model.Slot, viewerID string) []Cell {
	cells := make([]Cell, CellCount)
	for i := range cells {
		cells[i] = c.cell(i, now, slots, viewerID)
	}
	return cells
}

func (c *Calendar) cell(idx int, now time.Time, slots []*model.Slot, viewerID string) Cell {
	start, end := c.cellBounds(idx)
	cell := Cell{Index: idx, Start: start, End: end, State: CellAvailable}

	if start.Before(now) {
		cell.State = CellPast
		return cell
	}

	for _, s := range slots {
		if !s.Status.IsBlocking() || !s.Overlaps(start, end) {
			continue
		}
		cell.SlotID = s.ID
		cell.DJName = s.DJName
		if s.DJID == viewerID {
			cell.State = CellOwnBooking
		} else {
			cell.State = CellBooked
		}
		return cell
	}

	if _, ok := c.selected[idx]; ok {
		cell.State = CellSelected
	}
	return cell
}

// Toggle selects or deselects a cell. Deselecting is always allowed.
func (c *Calendar) Toggle(idx int, now time.Time, slots []*model.Slot, viewerID string) error {
	if idx < 0 || idx >= CellCount {
		return ErrCellOutOfRange
	}
	if _, ok := c.selected[idx]; ok {
		delete(c.selected, idx)
		return nil
	}

	switch c.cell(idx, now, slots, viewerID).State {
	case CellPast:
		return ErrCellPast
	case CellBooked:
		return ErrCellBooked
	case CellOwnBooking:
		return ErrCellOwnBooking
	}

	if len(c.selected) >= c.maxSelection {
		return fmt.Errorf("%w: you can book up to %d hours per day", ErrSelectionFull, c.maxSelection)
	}
	c.selected[idx] = struct{}{}
	return nil
}

// Selected returns the selected cell indexes in ascending order.
func (c *Calendar) Selected() []int {
	out := make([]int, 0, len(c.selected))
	for idx := range c.selected {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Select replaces the selection with idxs without validation. Used to restore
// a selection round-tripped through a client; Book re-checks everything.
func (c *Calendar) Select(idxs ...int) {
	c.ClearSelection()
	for _, idx := range idxs {
		if idx >= 0 && idx < CellCount {
			c.selected[idx] = struct{}{}
		}
	}
}

func (c *Calendar) ClearSelection() {
	c.selected = make(map[int]struct{})
}

// Ranges merges adjacent selected cells into booking intervals.
func (c *Calendar) Ranges() []Range {
	var out []Range
	for _, idx := range c.Selected() {
		start, end := c.cellBounds(idx)
		if n := len(out); n > 0 && out[n-1].End.Equal(start) {
			out[n-1].End = end
			continue
		}
		out = append(out, Range{Start: start, End: end})
	}
	return out
}

// Summary describes the selection the way the booking form shows it.
func (c *Calendar) Summary() string {
	n := len(c.selected)
	ranges := c.Ranges()
	switch {
	case n == 0:
		return "no hours selected"
	case n == 1:
		return "1 hour selected"
	case len(ranges) == 1:
		return fmt.Sprintf("continuous %d-hour block", n)
	default:
		return fmt.Sprintf("%d separate slots", len(ranges))
	}
}

// Shift moves the anchor by days. The selection does not survive navigation.
func (c *Calendar) Shift(days int) {
	c.anchor = startOfDay(c.anchor.AddDate(0, 0, days))
	c.ClearSelection()
}

// Today jumps back to the day containing now.
func (c *Calendar) Today(now time.Time) {
	c.anchor = startOfDay(now.In(c.loc))
	c.ClearSelection()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
