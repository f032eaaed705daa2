package hours

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("hour entry not found")

// Filter narrows ListEntries. Zero fields are not applied.
// From is inclusive and To exclusive, both compared with start_time.
type Filter struct {
	UserId    int
	ProjectId int
	AbsenceId int
	From      time.Time
	To        time.Time
}

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	ListEntries(ctx context.Context, filter Filter) ([]Entry, error)
	GetEntry(ctx context.Context, id int) (Entry, error)
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	UpdateEntry(ctx context.Context, entry Entry) (Entry, error)
	DeleteEntry(ctx context.Context, id int) error
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

type queryer interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *repositoryImpl) getQueryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op after commit
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	txRepo := &repositoryImpl{db: r.db, tx: tx}

	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const selectEntry = `SELECT h.id, h.user_id, h.project_id, h.absence_id, h.start_time, h.end_time, h.break_minutes, h.note
			  FROM hours h`

func (r *repositoryImpl) ListEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	var conditions []string
	var args []interface{}
	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}
	if filter.UserId != 0 {
		add("h.user_id = $%d", filter.UserId)
	}
	if filter.ProjectId != 0 {
		add("h.project_id = $%d", filter.ProjectId)
	}
	if filter.AbsenceId != 0 {
		add("h.absence_id = $%d", filter.AbsenceId)
	}
	if !filter.From.IsZero() {
		add("h.start_time >= $%d", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		add("h.start_time < $%d", filter.To.UTC())
	}

	query := selectEntry
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY h.start_time DESC, h.id DESC"

	rows, err := r.getQueryer().Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to list hour entries: %v", err)
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			log.Errorf("failed to scan hour entry: %v", err)
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repositoryImpl) GetEntry(ctx context.Context, id int) (Entry, error) {
	entry, err := scanEntry(r.getQueryer().QueryRow(ctx, selectEntry+" WHERE h.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		log.Errorf("failed to get hour entry %d: %v", id, err)
		return Entry{}, err
	}
	return entry, nil
}

func (r *repositoryImpl) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	projectId, absenceId := entry.Target.Columns()
	query := `INSERT INTO hours (user_id, project_id, absence_id, start_time, end_time, break_minutes, note)
			  VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.getQueryer().QueryRow(ctx, query,
		entry.UserId,
		projectId,
		absenceId,
		entry.StartTime.UTC(),
		entry.EndTime.UTC(),
		entry.BreakMinutes,
		entry.Note,
	).Scan(&entry.Id)
	if err != nil {
		log.Errorf("failed to create hour entry: %v", err)
		return Entry{}, err
	}
	return entry.WithCalculatedHours(), nil
}

// UpdateEntry overwrites every mutable column of the entry. user_id is never updated.
func (r *repositoryImpl) UpdateEntry(ctx context.Context, entry Entry) (Entry, error) {
	projectId, absenceId := entry.Target.Columns()
	query := `UPDATE hours
			  SET project_id = $1, absence_id = $2, start_time = $3, end_time = $4, break_minutes = $5, note = $6
			  WHERE id = $7`
	result, err := r.getQueryer().Exec(ctx, query,
		projectId,
		absenceId,
		entry.StartTime.UTC(),
		entry.EndTime.UTC(),
		entry.BreakMinutes,
		entry.Note,
		entry.Id,
	)
	if err != nil {
		log.Errorf("failed to update hour entry %d: %v", entry.Id, err)
		return Entry{}, err
	}
	if result.RowsAffected() == 0 {
		return Entry{}, ErrEntryNotFound
	}
	return entry.WithCalculatedHours(), nil
}

func (r *repositoryImpl) DeleteEntry(ctx context.Context, id int) error {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM hours WHERE id = $1`, id)
	if err != nil {
		log.Errorf("failed to delete hour entry %d: %v", id, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// scanEntry reads raw columns and derives HoursWorked. Rows referencing both or neither of
// project and absence keep the zero Target.
func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var projectId, absenceId *int
	if err := row.Scan(
		&entry.Id,
		&entry.UserId,
		&projectId,
		&absenceId,
		&entry.StartTime,
		&entry.EndTime,
		&entry.BreakMinutes,
		&entry.Note,
	); err != nil {
		return Entry{}, err
	}
	target, err := NewTarget(projectId, absenceId)
	if err != nil {
		log.Debugf("hour entry %d has no single target: %v", entry.Id, err)
	}
	entry.Target = target
	entry.StartTime = entry.StartTime.UTC()
	entry.EndTime = entry.EndTime.UTC()
	return entry.WithCalculatedHours(), nil
}
