package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

var taskColumns = []string{"id", "user_id", "title", "description", "completed", "created_at", "updated_at"}

type TaskStore struct {
	db *DB
}

func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

var _ port.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Get(ctx context.Context, id string) (domain.Task, error) {
	query, args, err := s.db.QueryBuilder.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	return scanTask(s.db.QueryRow(ctx, query, args...))
}

func (s *TaskStore) Put(ctx context.Context, task domain.Task) error {
	query, args, err := s.db.QueryBuilder.Insert("tasks").
		Columns(taskColumns...).
		Values(task.ID, task.UserID, task.Title, task.Description, task.Completed, task.CreatedAt, task.UpdatedAt).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query, args...)

	return err
}

// Update is a single conditional statement: RETURNING yields no row when the
// task is gone.
func (s *TaskStore) Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error) {
	update := s.db.QueryBuilder.Update("tasks").
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, user_id, title, description, completed, created_at, updated_at")

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

	return scanTask(s.db.QueryRow(ctx, query, args...))
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	query, args, err := s.db.QueryBuilder.Delete("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, query, args...)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (s *TaskStore) Scan(ctx context.Context, userID string) ([]domain.Task, error) {
	query, args, err := s.db.QueryBuilder.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at").
		ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)

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
	return s.db.Pool.Ping(ctx)
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var task domain.Task

	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.Completed, &task.CreatedAt, &task.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.Task{}, err
	}

	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	return task, nil
}
