package project

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu       sync.RWMutex
	projects map[int]Project
	nextId   int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{projects: make(map[int]Project), nextId: 1}
}

func (r *RepositoryStub) ListProjects(ctx context.Context) ([]Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	projects := make([]Project, 0, len(r.projects))
	for _, p := range r.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Id > projects[j].Id })
	return projects, nil
}

func (r *RepositoryStub) GetProject(ctx context.Context, id int) (Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (r *RepositoryStub) GetProjectByCode(ctx context.Context, code string) (Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if p.ProjectCode == code {
			return p, nil
		}
	}
	return Project{}, ErrProjectNotFound
}

func (r *RepositoryStub) CreateProject(ctx context.Context, project Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.codeTaken(project.ProjectCode, 0) {
		return Project{}, ErrProjectCodeExists
	}
	project.Id = r.nextId
	r.nextId++
	r.projects[project.Id] = project
	return project, nil
}

func (r *RepositoryStub) UpdateProject(ctx context.Context, project Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.projects[project.Id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	if r.codeTaken(project.ProjectCode, project.Id) {
		return Project{}, ErrProjectCodeExists
	}
	project.LoggedHours = existing.LoggedHours
	r.projects[project.Id] = project
	return project, nil
}

func (r *RepositoryStub) DeleteProject(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *RepositoryStub) SetLoggedHours(ctx context.Context, id int, loggedHours float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return ErrProjectNotFound
	}
	p.LoggedHours = loggedHours
	r.projects[id] = p
	return nil
}

func (r *RepositoryStub) codeTaken(code string, exceptId int) bool {
	for id, p := range r.projects {
		if id != exceptId && p.ProjectCode == code {
			return true
		}
	}
	return false
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects = make(map[int]Project)
	r.nextId = 1
}
