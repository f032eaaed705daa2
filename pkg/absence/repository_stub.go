package absence

import (
	"context"
	"sort"
)

type RepositoryStub struct {
	absences map[int]Absence
}

func NewRepositoryStub(absences ...Absence) *RepositoryStub {
	stub := &RepositoryStub{absences: make(map[int]Absence)}
	for _, a := range absences {
		stub.absences[a.Id] = a
	}
	return stub
}

func (r *RepositoryStub) ListAbsences(ctx context.Context) ([]Absence, error) {
	absences := make([]Absence, 0, len(r.absences))
	for _, a := range r.absences {
		absences = append(absences, a)
	}
	sort.Slice(absences, func(i, j int) bool { return absences[i].Id < absences[j].Id })
	return absences, nil
}

func (r *RepositoryStub) GetAbsence(ctx context.Context, id int) (Absence, error) {
	a, ok := r.absences[id]
	if !ok {
		return Absence{}, ErrAbsenceNotFound
	}
	return a, nil
}

func (r *RepositoryStub) GetAbsenceByCode(ctx context.Context, code string) (Absence, error) {
	for _, a := range r.absences {
		if a.AbsenceCode == code {
			return a, nil
		}
	}
	return Absence{}, ErrAbsenceNotFound
}
