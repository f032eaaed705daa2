package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, "Europe/Oslo", LoadLocation("Europe/Oslo").String())
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Mars/Olympus"))
}

func TestMockClock(t *testing.T) {
	clock := &MockClock{FixedNow: time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)}
	assert.Equal(t, 2025, clock.Now().Year())

	clock.SetNow(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.February, clock.Now().Month())
}
