package memory

import (
	"context"
	"sync"
	"time"
)

type UsageRepository struct {
	mu      sync.Mutex
	minutes map[string]int
}

func NewUsageRepository() *UsageRepository {
	return &UsageRepository{minutes: make(map[string]int)}
}

// usageKey uses the calendar date of day as given, like the DATE column.
func usageKey(djID string, day time.Time) string {
	return djID + "|" + day.Format("2006-01-02")
}

func (r *UsageRepository) Minutes(_ context.Context, djID string, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minutes[usageKey(djID, day)], nil
}

func (r *UsageRepository) Add(_ context.Context, djID string, day time.Time, minutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.minutes[usageKey(djID, day)] += minutes
	return nil
}
