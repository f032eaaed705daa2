package absence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrAbsenceNotFound = errors.New("absence not found")

type Repository interface {
	ListAbsences(ctx context.Context) ([]Absence, error)
	GetAbsence(ctx context.Context, id int) (Absence, error)
	GetAbsenceByCode(ctx context.Context, code string) (Absence, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const selectAbsence = `SELECT id, name, description, absence_code FROM absence`

func (r *RepositoryImpl) ListAbsences(ctx context.Context) ([]Absence, error) {
	rows, err := r.db.Query(ctx, selectAbsence+` ORDER BY id`)
	if err != nil {
		log.Errorf("failed to list absences: %v", err)
		return nil, err
	}
	defer rows.Close()

	absences := make([]Absence, 0)
	for rows.Next() {
		var a Absence
		if err := rows.Scan(&a.Id, &a.Name, &a.Description, &a.AbsenceCode); err != nil {
			log.Errorf("failed to scan absence: %v", err)
			return nil, err
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

func (r *RepositoryImpl) GetAbsence(ctx context.Context, id int) (Absence, error) {
	return r.getOne(ctx, selectAbsence+` WHERE id = $1`, id)
}

func (r *RepositoryImpl) GetAbsenceByCode(ctx context.Context, code string) (Absence, error) {
	return r.getOne(ctx, selectAbsence+` WHERE absence_code = $1`, code)
}

func (r *RepositoryImpl) getOne(ctx context.Context, query string, arg interface{}) (Absence, error) {
	var a Absence
	err := r.db.QueryRow(ctx, query, arg).Scan(&a.Id, &a.Name, &a.Description, &a.AbsenceCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return Absence{}, ErrAbsenceNotFound
	}
	if err != nil {
		log.Errorf("failed to get absence %v: %v", arg, err)
		return Absence{}, err
	}
	return a, nil
}
