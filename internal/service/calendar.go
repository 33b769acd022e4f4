package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/calendar"
	"github.com/DJCodeOne/freshwax-sub008/internal/model"
)

// CalendarView is one day of the booking grid as a particular DJ sees it.
type CalendarView struct {
	Day          string          `json:"day"`
	Cells        []calendar.Cell `json:"cells"`
	Selected     []int           `json:"selected"`
	Summary      string          `json:"summary"`
	MaxSelection int             `json:"maxSelection"`
}

// NewCalendar returns an empty grid for the station day containing day.
func (s *SlotService) NewCalendar(day time.Time) *calendar.Calendar {
	return calendar.New(day, s.loc, s.settings.DailyHours)
}

// CalendarSlots reads the slots overlapping the grid. It is called on every
// render so the grid never shows a stale booking.
func (s *SlotService) CalendarSlots(ctx context.Context, cal *calendar.Calendar) ([]*model.Slot, error) {
	from, to := cal.Window()
	return s.ListWindow(ctx, from, to)
}

// ToggleCell flips one cell of cal for viewerID against a fresh read of the day.
func (s *SlotService) ToggleCell(ctx context.Context, cal *calendar.Calendar, idx int, viewerID string) error {
	slots, err := s.CalendarSlots(ctx, cal)
	if err != nil {
		return err
	}
	return cal.Toggle(idx, s.now(), slots, viewerID)
}

func (s *SlotService) View(ctx context.Context, cal *calendar.Calendar, viewerID string) (CalendarView, error) {
	slots, err := s.CalendarSlots(ctx, cal)
	if err != nil {
		return CalendarView{}, err
	}
	return CalendarView{
		Day:          cal.Anchor().Format("2006-01-02"),
		Cells:        cal.Cells(s.now(), slots, viewerID),
		Selected:     cal.Selected(),
		Summary:      cal.Summary(),
		MaxSelection: cal.MaxSelection(),
	}, nil
}

func (s *SlotService) RenderCalendar(ctx context.Context, cal *calendar.Calendar, viewerID string) ([]byte, error) {
	slots, err := s.CalendarSlots(ctx, cal)
	if err != nil {
		return nil, err
	}
	return cal.RenderPNG(s.now(), slots, viewerID)
}

// CellBooking is a booking expressed as calendar cell indexes.
type CellBooking struct {
	Day   time.Time
	Cells []int
	Title string
	Genre string
}

// BookCells replays the selection on a fresh grid, so every cell rule is
// enforced server-side, then books the merged ranges.
func (s *SlotService) BookCells(ctx context.Context, caller Caller, req CellBooking) ([]*model.Slot, error) {
	cal := s.NewCalendar(req.Day)
	slots, err := s.CalendarSlots(ctx, cal)
	if err != nil {
		return nil, err
	}

	now := s.now()
	seen := make(map[int]bool, len(req.Cells))
	for _, idx := range req.Cells {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		if err := cal.Toggle(idx, now, slots, caller.ID); err != nil {
			return nil, cellError(err)
		}
	}

	return s.Book(ctx, BookRequest{
		DJID:   caller.ID,
		DJName: caller.Name,
		Title:  req.Title,
		Genre:  req.Genre,
		Ranges: cal.Ranges(),
	})
}

func cellError(err error) error {
	switch {
	case errors.Is(err, calendar.ErrCellBooked):
		return ErrSlotConflict
	case errors.Is(err, calendar.ErrSelectionFull):
		return fmt.Errorf("%w: %w", ErrDailyLimitExceeded, err)
	}
	return fmt.Errorf("%w: %w", ErrInvalidSelection, err)
}
