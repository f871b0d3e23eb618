package flow

import "time"

// Test hooks for the expiry machinery.

func WithClockForTest(now func() time.Time) Option {
	return withClock(now)
}

func (m *Manager) ExpireIdleForTest() {
	m.expireIdle()
}
