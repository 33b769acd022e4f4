// Package state keeps each Telegram user's in-progress calendar selection.
package state

import (
	"sync"
	"time"
)

// Session is the calendar a user is looking at. The grid itself is rebuilt
// from Day and Selected on every render.
type Session struct {
	Day       time.Time
	Selected  []int
	MessageID int // photo message carrying the calendar keyboard
	UpdatedAt time.Time
}

// Manager stores sessions per Telegram user id. Sessions idle for longer than
// the ttl are dropped.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
	}
}

// Get returns a copy of the user's session.
func (m *Manager) Get(telegramID int64, now time.Time) (Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[telegramID]
	m.mu.RUnlock()

	if !ok {
		return Session{}, false
	}
	if m.ttl > 0 && now.Sub(s.UpdatedAt) > m.ttl {
		m.Clear(telegramID)
		return Session{}, false
	}

	cp := *s
	cp.Selected = append([]int(nil), s.Selected...)
	return cp, true
}

func (m *Manager) Set(telegramID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.Selected = append([]int(nil), s.Selected...)
	m.sessions[telegramID] = &s
}

func (m *Manager) Clear(telegramID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, telegramID)
}

// Prune drops idle sessions and returns how many were removed.
func (m *Manager) Prune(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if now.Sub(s.UpdatedAt) > m.ttl {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
