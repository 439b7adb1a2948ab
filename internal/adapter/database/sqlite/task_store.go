package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

var taskColumns = []string{"id", "user_id", "title", "description", "completed", "created_at", "updated_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type TaskStore struct {
	db *DB
}

func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

var _ port.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Get(ctx context.Context, id string) (domain.Task, error) {
	return s.get(ctx, s.db.DB, id)
}

func (s *TaskStore) get(ctx context.Context, q queryRower, id string) (domain.Task, error) {
	query, args, err := s.db.QueryBuilder.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	task, err := scanTask(q.QueryRowContext(ctx, query, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.ErrNotFound
	}

	return task, err
}

func (s *TaskStore) Put(ctx context.Context, task domain.Task) error {
	query, args, err := s.db.QueryBuilder.Insert("tasks").
		Columns(taskColumns...).
		Values(task.ID, task.UserID, task.Title, task.Description, task.Completed, formatTime(task.CreatedAt), formatTime(task.UpdatedAt)).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	return err
}

func (s *TaskStore) Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error) {
	update := s.db.QueryBuilder.Update("tasks").
		Set("updated_at", formatTime(updatedAt)).
		Where(sq.Eq{"id": id})

	if patch.Title != nil {
		update = update.Set("title", *patch.Title)
	}

	if patch.Description != nil {
		update = update.Set("description", *patch.Description)
	}

	if patch.Completed != nil {
		update = update.Set("completed", *patch.Completed)
	}

	query, args, err := update.ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)

	if err != nil {
		return domain.Task{}, err
	}

	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Task{}, err
	}

	if affected, err := result.RowsAffected(); err != nil {
		return domain.Task{}, err
	} else if affected == 0 {
		return domain.Task{}, domain.ErrNotFound
	}

	task, err := s.get(ctx, tx, id)

	if err != nil {
		return domain.Task{}, err
	}

	return task, tx.Commit()
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	query, args, err := s.db.QueryBuilder.Delete("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)

	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()

	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (s *TaskStore) Scan(ctx context.Context, userID string) ([]domain.Task, error) {
	query, args, err := s.db.QueryBuilder.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	tasks := make([]domain.Task, 0)

	for rows.Next() {
		task, err := scanTask(rows)

		if err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

func (s *TaskStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		task                 domain.Task
		createdAt, updatedAt string
	)

	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.Completed, &createdAt, &updatedAt)

	if err != nil {
		return domain.Task{}, err
	}

	if task.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.Task{}, fmt.Errorf("task %s: created_at: %w", task.ID, err)
	}

	if task.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return domain.Task{}, fmt.Errorf("task %s: updated_at: %w", task.ID, err)
	}

	return task, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
