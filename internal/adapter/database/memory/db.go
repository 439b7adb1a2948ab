// Package memory keeps tasks and users in process memory. It backs the
// development profile and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

type TaskStore struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewTaskStore() *TaskStore {
	return &TaskStore{cache: cache.New(cache.NoExpiration, 0)}
}

var _ port.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Get(ctx context.Context, id string) (domain.Task, error) {
	item, found := s.cache.Get(id)

	if !found {
		return domain.Task{}, domain.ErrNotFound
	}

	return item.(domain.Task), nil
}

func (s *TaskStore) Put(ctx context.Context, task domain.Task) error {
	s.cache.Set(task.ID, task, cache.NoExpiration)
	return nil
}

// Update applies the patch only if the task still exists.
func (s *TaskStore) Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.cache.Get(id)

	if !found {
		return domain.Task{}, domain.ErrNotFound
	}

	task := patch.Apply(item.(domain.Task), updatedAt)
	s.cache.Set(id, task, cache.NoExpiration)

	return task, nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.cache.Get(id); !found {
		return domain.ErrNotFound
	}

	s.cache.Delete(id)

	return nil
}

func (s *TaskStore) Scan(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)

	for _, item := range s.cache.Items() {
		task := item.Object.(domain.Task)

		if task.UserID == userID {
			tasks = append(tasks, task)
		}
	}

	return tasks, nil
}

func (s *TaskStore) Ping(ctx context.Context) error {
	return nil
}

type UserStore struct {
	cache *cache.Cache
}

func NewUserStore() *UserStore {
	return &UserStore{cache: cache.New(cache.NoExpiration, 0)}
}

var _ port.UserStore = (*UserStore)(nil)

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	item, found := s.cache.Get(email)

	if !found {
		return domain.User{}, domain.ErrNotFound
	}

	return item.(domain.User), nil
}

func (s *UserStore) Create(ctx context.Context, user domain.User) error {
	if err := s.cache.Add(user.Email, user, cache.NoExpiration); err != nil {
		return domain.ErrEmailInUse
	}

	return nil
}
