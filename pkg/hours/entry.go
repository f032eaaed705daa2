package hours

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTarget = errors.New("entry must reference exactly one of project or absence")

type TargetKind int

const (
	noTarget TargetKind = iota
	ProjectTarget
	AbsenceTarget
)

func (k TargetKind) String() string {
	switch k {
	case ProjectTarget:
		return "project"
	case AbsenceTarget:
		return "absence"
	default:
		return "none"
	}
}

// Target is what an hour entry is logged against: a project or an absence reason, never both.
// The zero value references nothing and is invalid.
type Target struct {
	kind TargetKind
	id   int
}

func Project(id int) Target {
	return Target{kind: ProjectTarget, id: id}
}

func Absence(id int) Target {
	return Target{kind: AbsenceTarget, id: id}
}

// NewTarget builds a Target from the two optional ids used by storage and the API.
// Exactly one of them must be set to a positive id.
func NewTarget(projectId, absenceId *int) (Target, error) {
	hasProject := projectId != nil && *projectId > 0
	hasAbsence := absenceId != nil && *absenceId > 0
	switch {
	case hasProject && !hasAbsence:
		return Project(*projectId), nil
	case hasAbsence && !hasProject:
		return Absence(*absenceId), nil
	default:
		return Target{}, ErrInvalidTarget
	}
}

func (t Target) Kind() TargetKind {
	return t.kind
}

func (t Target) Valid() bool {
	return t.kind != noTarget && t.id > 0
}

// ProjectId returns the project id, or 0 and false for absence or invalid targets.
func (t Target) ProjectId() (int, bool) {
	if t.kind != ProjectTarget {
		return 0, false
	}
	return t.id, true
}

// AbsenceId returns the absence id, or 0 and false for project or invalid targets.
func (t Target) AbsenceId() (int, bool) {
	if t.kind != AbsenceTarget {
		return 0, false
	}
	return t.id, true
}

// Columns splits the target back into the nullable project/absence columns.
func (t Target) Columns() (projectId *int, absenceId *int) {
	id := t.id
	switch t.kind {
	case ProjectTarget:
		return &id, nil
	case AbsenceTarget:
		return nil, &id
	default:
		return nil, nil
	}
}

func (t Target) String() string {
	if !t.Valid() {
		return "none"
	}
	return fmt.Sprintf("%s:%d", t.kind, t.id)
}

// Entry is one logged interval of work or absence.
type Entry struct {
	Id     int
	UserId int
	Target Target
	// StartTime and EndTime are stored in UTC. A zero StartTime marks a malformed row.
	StartTime    time.Time
	EndTime      time.Time
	BreakMinutes int
	Note         string
	// HoursWorked is derived by CalculateHoursWorked and never persisted.
	HoursWorked float64
}

// WithCalculatedHours returns a copy of e with HoursWorked derived from its interval and break.
func (e Entry) WithCalculatedHours() Entry {
	e.HoursWorked = CalculateHoursWorked(e.StartTime, e.EndTime, e.BreakMinutes)
	return e
}

// ProjectId is a shorthand for e.Target.ProjectId, returning 0 for non-project entries.
func (e Entry) ProjectId() int {
	id, _ := e.Target.ProjectId()
	return id
}

func (e Entry) AbsenceId() int {
	id, _ := e.Target.AbsenceId()
	return id
}
