package project

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

type Repository interface {
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id int) (Project, error)
	GetProjectByCode(ctx context.Context, code string) (Project, error)
	CreateProject(ctx context.Context, project Project) (Project, error)
	UpdateProject(ctx context.Context, project Project) (Project, error)
	DeleteProject(ctx context.Context, id int) error
	SetLoggedHours(ctx context.Context, id int, loggedHours float64) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const selectProject = `SELECT id, name, description, status, logged_hours, start_date, end_date, project_code FROM projects`

func (r *RepositoryImpl) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := r.db.Query(ctx, selectProject+` ORDER BY start_date DESC NULLS LAST, id DESC`)
	if err != nil {
		log.Errorf("failed to list projects: %v", err)
		return nil, err
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			log.Errorf("failed to scan project: %v", err)
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *RepositoryImpl) GetProject(ctx context.Context, id int) (Project, error) {
	return r.getOne(ctx, selectProject+` WHERE id = $1`, id)
}

func (r *RepositoryImpl) GetProjectByCode(ctx context.Context, code string) (Project, error) {
	return r.getOne(ctx, selectProject+` WHERE project_code = $1`, code)
}

func (r *RepositoryImpl) getOne(ctx context.Context, query string, arg interface{}) (Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrProjectNotFound
	}
	if err != nil {
		log.Errorf("failed to get project %v: %v", arg, err)
		return Project{}, err
	}
	return p, nil
}

func (r *RepositoryImpl) CreateProject(ctx context.Context, project Project) (Project, error) {
	query := `INSERT INTO projects (name, description, status, start_date, end_date, project_code)
			  VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRow(ctx, query,
		project.Name,
		project.Description,
		string(project.Status),
		project.StartDate,
		project.EndDate,
		project.ProjectCode,
	).Scan(&project.Id)
	if err != nil {
		return Project{}, mapWriteError(err)
	}
	project.LoggedHours = 0
	return project, nil
}

func (r *RepositoryImpl) UpdateProject(ctx context.Context, project Project) (Project, error) {
	query := `UPDATE projects
			  SET name = $1, description = $2, status = $3, start_date = $4, end_date = $5, project_code = $6
			  WHERE id = $7
			  RETURNING logged_hours`
	err := r.db.QueryRow(ctx, query,
		project.Name,
		project.Description,
		string(project.Status),
		project.StartDate,
		project.EndDate,
		project.ProjectCode,
		project.Id,
	).Scan(&project.LoggedHours)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrProjectNotFound
	}
	if err != nil {
		return Project{}, mapWriteError(err)
	}
	return project, nil
}

func (r *RepositoryImpl) DeleteProject(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		log.Errorf("failed to delete project %d: %v", id, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *RepositoryImpl) SetLoggedHours(ctx context.Context, id int, loggedHours float64) error {
	result, err := r.db.Exec(ctx, `UPDATE projects SET logged_hours = $1 WHERE id = $2`, loggedHours, id)
	if err != nil {
		log.Errorf("failed to store logged hours of project %d: %v", id, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrProjectCodeExists
	}
	log.Errorf("failed to write project: %v", err)
	return err
}

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	var status string
	var startDate, endDate *time.Time
	if err := row.Scan(&p.Id, &p.Name, &p.Description, &status, &p.LoggedHours, &startDate, &endDate, &p.ProjectCode); err != nil {
		return Project{}, err
	}
	p.Status = Status(status)
	p.StartDate = startDate
	p.EndDate = endDate
	return p, nil
}
