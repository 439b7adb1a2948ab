package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"taskmanager/internal/core/domain"
)

// Requires a Redis server; REDIS_ADDR defaults to localhost:6379.
type RedisStoreSuite struct {
	suite.Suite
	db     *DB
	tasks  *TaskStore
	users  *UserStore
	prefix string
}

func (s *RedisStoreSuite) SetupTest() {
	s.db = nil

	addr := os.Getenv("REDIS_ADDR")

	if addr == "" {
		addr = "localhost:6379"
	}

	s.prefix = "taskmanager-test:" + uuid.NewString() + ":"

	db, err := NewDB(context.Background(), Config{Addr: addr, Prefix: s.prefix})

	if err != nil {
		s.T().Skipf("Redis not available at %s: %v", addr, err)
	}

	s.db = db
	s.tasks = NewTaskStore(db)
	s.users = NewUserStore(db)
}

func (s *RedisStoreSuite) TearDownTest() {
	if s.db == nil {
		return
	}

	ctx := context.Background()
	iter := s.db.Scan(ctx, 0, s.prefix+"*", 100).Iterator()

	for iter.Next(ctx) {
		s.db.Del(ctx, iter.Val())
	}

	s.db.Close()
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) newTask(owner string) domain.Task {
	now := time.Now().UTC().Truncate(time.Millisecond)

	return domain.Task{
		ID:          uuid.NewString(),
		UserID:      owner,
		Title:       "Buy milk",
		Description: "2 liters",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *RedisStoreSuite) TestPutGetRoundTrip() {
	ctx := context.Background()
	task := s.newTask("a@example.com")

	s.Require().NoError(s.tasks.Put(ctx, task))

	got, err := s.tasks.Get(ctx, task.ID)
	s.Require().NoError(err)
	s.True(task.CreatedAt.Equal(got.CreatedAt))
	s.Equal(task.Title, got.Title)
	s.Equal(task.UserID, got.UserID)
	s.False(got.Completed)
}

func (s *RedisStoreSuite) TestUpdateMergesFields() {
	ctx := context.Background()
	task := s.newTask("a@example.com")
	s.Require().NoError(s.tasks.Put(ctx, task))

	done := true
	later := task.UpdatedAt.Add(time.Minute)

	updated, err := s.tasks.Update(ctx, task.ID, domain.TaskPatch{Completed: &done}, later)
	s.Require().NoError(err)
	s.True(updated.Completed)
	s.Equal("Buy milk", updated.Title)
	s.Equal("2 liters", updated.Description)
	s.True(later.Equal(updated.UpdatedAt))
	s.True(task.CreatedAt.Equal(updated.CreatedAt))
}

func (s *RedisStoreSuite) TestUpdateMissingTask() {
	done := true

	_, err := s.tasks.Update(context.Background(), "missing", domain.TaskPatch{Completed: &done}, time.Now())
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *RedisStoreSuite) TestDeleteRemovesFromIndex() {
	ctx := context.Background()
	task := s.newTask("a@example.com")
	s.Require().NoError(s.tasks.Put(ctx, task))

	s.Require().NoError(s.tasks.Delete(ctx, task.ID))
	s.ErrorIs(s.tasks.Delete(ctx, task.ID), domain.ErrNotFound)

	_, err := s.tasks.Get(ctx, task.ID)
	s.ErrorIs(err, domain.ErrNotFound)

	tasks, err := s.tasks.Scan(ctx, "a@example.com")
	s.Require().NoError(err)
	s.Empty(tasks)
}

func (s *RedisStoreSuite) TestScanByOwner() {
	ctx := context.Background()

	s.Require().NoError(s.tasks.Put(ctx, s.newTask("a@example.com")))
	s.Require().NoError(s.tasks.Put(ctx, s.newTask("a@example.com")))
	s.Require().NoError(s.tasks.Put(ctx, s.newTask("b@example.com")))

	tasks, err := s.tasks.Scan(ctx, "a@example.com")
	s.Require().NoError(err)
	s.Len(tasks, 2)

	for _, task := range tasks {
		s.Equal("a@example.com", task.UserID)
	}
}

func (s *RedisStoreSuite) TestUserCreateIsConditional() {
	ctx := context.Background()
	user := domain.User{ID: "user_1", Email: "a@example.com", Name: "a", EncryptedPassword: "hash", CreatedAt: time.Now().UTC()}

	s.Require().NoError(s.users.Create(ctx, user))
	s.ErrorIs(s.users.Create(ctx, user), domain.ErrEmailInUse)

	got, err := s.users.GetByEmail(ctx, "a@example.com")
	s.Require().NoError(err)
	s.Equal("hash", got.EncryptedPassword)

	_, err = s.users.GetByEmail(ctx, "missing@example.com")
	s.ErrorIs(err, domain.ErrNotFound)
}
