package project

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusInactive  Status = "inactive"
)

func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusActive, StatusCompleted, StatusInactive:
		return Status(value), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrProjectInvalid, value)
}

type Project struct {
	Id          int
	Name        string
	Description string
	Status      Status
	// LoggedHours is the sum of hours of all entries logged against the project.
	LoggedHours float64
	StartDate   *time.Time
	EndDate     *time.Time
	ProjectCode string
}

// IsActiveOn reports whether the project is active and has not ended before day.
func (p Project) IsActiveOn(day time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	if p.EndDate == nil {
		return true
	}
	y, m, d := day.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ey, em, ed := p.EndDate.Date()
	return !time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Before(today)
}
