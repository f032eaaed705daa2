package utils

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Clock supplies "now" to services so that period calculations stay deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}

// LoadLocation resolves an IANA timezone name, falling back to UTC for empty or unknown names.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warnf("unknown timezone %q, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}
