package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

// Conditional update: writes only if the hash exists and returns the full
// record after the write, in one round trip.
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return redis.call('HGETALL', KEYS[1])
`)

// ARGV[1] is the owner index prefix, ARGV[2] the task id.
var deleteScript = redis.NewScript(`
local owner = redis.call('HGET', KEYS[1], 'userId')
if not owner then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('SREM', ARGV[1] .. owner, ARGV[2])
return 1
`)

type TaskStore struct {
	db *DB
}

func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

var _ port.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Get(ctx context.Context, id string) (domain.Task, error) {
	fields, err := s.db.HGetAll(ctx, s.db.taskKey(id)).Result()

	if err != nil {
		return domain.Task{}, err
	}

	if len(fields) == 0 {
		return domain.Task{}, domain.ErrNotFound
	}

	return decodeTask(fields)
}

func (s *TaskStore) Put(ctx context.Context, task domain.Task) error {
	_, err := s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.db.taskKey(task.ID), encodeTask(task))
		pipe.SAdd(ctx, s.db.ownerIndexKey(task.UserID), task.ID)
		return nil
	})

	return err
}

func (s *TaskStore) Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error) {
	args := make([]interface{}, 0, 8)

	if patch.Title != nil {
		args = append(args, "title", *patch.Title)
	}

	if patch.Description != nil {
		args = append(args, "description", *patch.Description)
	}

	if patch.Completed != nil {
		args = append(args, "completed", strconv.FormatBool(*patch.Completed))
	}

	args = append(args, "updatedAt", formatTime(updatedAt))

	values, err := updateScript.Run(ctx, s.db, []string{s.db.taskKey(id)}, args...).StringSlice()

	if errors.Is(err, redis.Nil) {
		return domain.Task{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.Task{}, err
	}

	fields := make(map[string]string, len(values)/2)

	for i := 0; i+1 < len(values); i += 2 {
		fields[values[i]] = values[i+1]
	}

	return decodeTask(fields)
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	removed, err := deleteScript.Run(ctx, s.db, []string{s.db.taskKey(id)}, s.db.ownerIndexPrefix(), id).Int()

	if err != nil {
		return err
	}

	if removed == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (s *TaskStore) Scan(ctx context.Context, userID string) ([]domain.Task, error) {
	ids, err := s.db.SMembers(ctx, s.db.ownerIndexKey(userID)).Result()

	if err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(ids))

	if len(ids) == 0 {
		return tasks, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))

	_, err = s.db.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.db.taskKey(id))
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	for _, cmd := range cmds {
		fields := cmd.Val()

		// Index entries can briefly outlive a hash removed by a racing delete.
		if len(fields) == 0 {
			continue
		}

		task, err := decodeTask(fields)

		if err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	return tasks, nil
}

func (s *TaskStore) Ping(ctx context.Context) error {
	return s.db.Client.Ping(ctx).Err()
}

func encodeTask(task domain.Task) map[string]interface{} {
	return map[string]interface{}{
		"id":          task.ID,
		"userId":      task.UserID,
		"title":       task.Title,
		"description": task.Description,
		"completed":   strconv.FormatBool(task.Completed),
		"createdAt":   formatTime(task.CreatedAt),
		"updatedAt":   formatTime(task.UpdatedAt),
	}
}

func decodeTask(fields map[string]string) (domain.Task, error) {
	completed, err := strconv.ParseBool(fields["completed"])

	if err != nil {
		return domain.Task{}, fmt.Errorf("decode task %q: completed: %w", fields["id"], err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["createdAt"])

	if err != nil {
		return domain.Task{}, fmt.Errorf("decode task %q: createdAt: %w", fields["id"], err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updatedAt"])

	if err != nil {
		return domain.Task{}, fmt.Errorf("decode task %q: updatedAt: %w", fields["id"], err)
	}

	return domain.Task{
		ID:          fields["id"],
		UserID:      fields["userId"],
		Title:       fields["title"],
		Description: fields["description"],
		Completed:   completed,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
