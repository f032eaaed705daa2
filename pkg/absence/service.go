package absence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

type Service interface {
	ListAbsences(ctx context.Context) ([]Absence, error)
	// GetAbsence looks the absence up by absence code first and then by numeric id.
	GetAbsence(ctx context.Context, idOrCode string) (Absence, error)
	AbsenceNames(ctx context.Context) (map[int]string, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) ListAbsences(ctx context.Context) ([]Absence, error) {
	return s.repo.ListAbsences(ctx)
}

func (s *ServiceImpl) GetAbsence(ctx context.Context, idOrCode string) (Absence, error) {
	a, err := s.repo.GetAbsenceByCode(ctx, idOrCode)
	if err == nil || !errors.Is(err, ErrAbsenceNotFound) {
		return a, err
	}
	id, convErr := strconv.Atoi(idOrCode)
	if convErr != nil {
		return Absence{}, ErrAbsenceNotFound
	}
	return s.repo.GetAbsence(ctx, id)
}

func (s *ServiceImpl) AbsenceNames(ctx context.Context) (map[int]string, error) {
	absences, err := s.repo.ListAbsences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load absence names: %w", err)
	}
	names := make(map[int]string, len(absences))
	for _, a := range absences {
		names[a.Id] = a.Name
	}
	return names, nil
}
