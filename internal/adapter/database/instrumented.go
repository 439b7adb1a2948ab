package database

import (
	"context"
	"time"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
	tel "taskmanager/internal/core/telemetry"
)

type InstrumentedTaskStore struct {
	next      port.TaskStore
	telemetry port.Telemetry
}

func NewInstrumentedTaskStore(next port.TaskStore, telemetry port.Telemetry) *InstrumentedTaskStore {
	if telemetry == nil {
		telemetry = tel.NewNoOpTelemetry()
	}

	return &InstrumentedTaskStore{next: next, telemetry: telemetry}
}

var _ port.TaskStore = (*InstrumentedTaskStore)(nil)

func (s *InstrumentedTaskStore) Get(ctx context.Context, id string) (task domain.Task, err error) {
	ctx, done := observe(ctx, s.telemetry, "Get", "task", map[string]interface{}{"task.id": id})
	defer func() { done(err) }()

	return s.next.Get(ctx, id)
}

func (s *InstrumentedTaskStore) Put(ctx context.Context, task domain.Task) (err error) {
	ctx, done := observe(ctx, s.telemetry, "Put", "task", map[string]interface{}{"task.id": task.ID})
	defer func() { done(err) }()

	return s.next.Put(ctx, task)
}

func (s *InstrumentedTaskStore) Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (task domain.Task, err error) {
	ctx, done := observe(ctx, s.telemetry, "Update", "task", map[string]interface{}{
		"task.id":     id,
		"task.fields": patch.Fields(),
	})
	defer func() { done(err) }()

	return s.next.Update(ctx, id, patch, updatedAt)
}

func (s *InstrumentedTaskStore) Delete(ctx context.Context, id string) (err error) {
	ctx, done := observe(ctx, s.telemetry, "Delete", "task", map[string]interface{}{"task.id": id})
	defer func() { done(err) }()

	return s.next.Delete(ctx, id)
}

func (s *InstrumentedTaskStore) Scan(ctx context.Context, userID string) (tasks []domain.Task, err error) {
	ctx, done := observe(ctx, s.telemetry, "Scan", "task", map[string]interface{}{"user.id": userID})
	defer func() { done(err) }()

	return s.next.Scan(ctx, userID)
}

type InstrumentedUserStore struct {
	next      port.UserStore
	telemetry port.Telemetry
}

func NewInstrumentedUserStore(next port.UserStore, telemetry port.Telemetry) *InstrumentedUserStore {
	if telemetry == nil {
		telemetry = tel.NewNoOpTelemetry()
	}

	return &InstrumentedUserStore{next: next, telemetry: telemetry}
}

var _ port.UserStore = (*InstrumentedUserStore)(nil)

func (s *InstrumentedUserStore) GetByEmail(ctx context.Context, email string) (user domain.User, err error) {
	ctx, done := observe(ctx, s.telemetry, "GetByEmail", "user", nil)
	defer func() { done(err) }()

	return s.next.GetByEmail(ctx, email)
}

func (s *InstrumentedUserStore) Create(ctx context.Context, user domain.User) (err error) {
	ctx, done := observe(ctx, s.telemetry, "Create", "user", map[string]interface{}{"user.id": user.ID})
	defer func() { done(err) }()

	return s.next.Create(ctx, user)
}

func observe(ctx context.Context, telemetry port.Telemetry, operation, entity string, attrs map[string]interface{}) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := telemetry.StartRepositorySpan(ctx, operation, entity, attrs)

	return ctx, func(err error) {
		telemetry.RecordRepositoryOperation(ctx, operation, entity, time.Since(start), err)
		span.End()
	}
}
