package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
	tel "taskmanager/internal/core/telemetry"
)

const taskServiceName = "task"

type TaskService struct {
	store     port.TaskStore
	telemetry port.Telemetry
	now       func() time.Time
	newID     func() string
}

func NewTaskService(store port.TaskStore, telemetry port.Telemetry) *TaskService {
	if telemetry == nil {
		telemetry = tel.NewNoOpTelemetry()
	}

	return &TaskService{
		store:     store,
		telemetry: telemetry,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
	}
}

// WithClock replaces the time source. Used by tests.
func (ts *TaskService) WithClock(now func() time.Time) *TaskService {
	ts.now = now
	return ts
}

func (ts *TaskService) Create(ctx context.Context, principal domain.Principal, title string, description string) (task domain.Task, err error) {
	ctx, done := ts.trace(ctx, "Create", principal, "")
	defer func() { done(err) }()

	if !principal.IsAuthenticated() {
		return domain.Task{}, domain.ErrUnauthenticated
	}

	title, err = domain.NormalizeTitle(title)

	if err != nil {
		return domain.Task{}, err
	}

	if err = domain.ValidateDescription(description); err != nil {
		return domain.Task{}, err
	}

	now := ts.now()

	task = domain.Task{
		ID:          ts.newID(),
		UserID:      principal.UserID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = ts.store.Put(ctx, task); err != nil {
		return domain.Task{}, storeFailure(err)
	}

	ts.telemetry.RecordBusinessEvent(ctx, "task.created", "task", task.ID, principal.UserID, nil)

	return task, nil
}

func (ts *TaskService) List(ctx context.Context, principal domain.Principal) (tasks []domain.Task, err error) {
	ctx, done := ts.trace(ctx, "List", principal, "")
	defer func() { done(err) }()

	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	rows, err := ts.store.Scan(ctx, principal.UserID)

	if err != nil {
		return nil, storeFailure(err)
	}

	// Stores filter by owner already; the check here keeps a misbehaving
	// backend from leaking another user's tasks.
	tasks = make([]domain.Task, 0, len(rows))

	for _, task := range rows {
		if task.BelongsTo(principal.UserID) {
			tasks = append(tasks, task)
		}
	}

	return tasks, nil
}

func (ts *TaskService) Get(ctx context.Context, principal domain.Principal, id string) (task domain.Task, err error) {
	ctx, done := ts.trace(ctx, "Get", principal, id)
	defer func() { done(err) }()

	return ts.authorize(ctx, principal, id)
}

func (ts *TaskService) Update(ctx context.Context, principal domain.Principal, id string, patch domain.TaskPatch) (task domain.Task, err error) {
	ctx, done := ts.trace(ctx, "Update", principal, id)
	defer func() { done(err) }()

	if _, err = ts.authorize(ctx, principal, id); err != nil {
		return domain.Task{}, err
	}

	if patch.IsEmpty() {
		return domain.Task{}, fmt.Errorf("%w: no valid fields to update", domain.ErrInvalidInput)
	}

	patch, err = patch.Normalize()

	if err != nil {
		return domain.Task{}, err
	}

	task, err = ts.store.Update(ctx, id, patch, ts.now())

	if err != nil {
		return domain.Task{}, storeFailure(err)
	}

	ts.telemetry.RecordBusinessEvent(ctx, "task.updated", "task", id, principal.UserID, map[string]interface{}{
		"fields": patch.Fields(),
	})

	return task, nil
}

func (ts *TaskService) Delete(ctx context.Context, principal domain.Principal, id string) (err error) {
	ctx, done := ts.trace(ctx, "Delete", principal, id)
	defer func() { done(err) }()

	if _, err = ts.authorize(ctx, principal, id); err != nil {
		return err
	}

	if err = ts.store.Delete(ctx, id); err != nil {
		return storeFailure(err)
	}

	ts.telemetry.RecordBusinessEvent(ctx, "task.deleted", "task", id, principal.UserID, nil)

	return nil
}

// authorize runs the guard chain shared by every by-id operation:
// authenticated, then exists, then owned by the caller.
func (ts *TaskService) authorize(ctx context.Context, principal domain.Principal, id string) (domain.Task, error) {
	if !principal.IsAuthenticated() {
		return domain.Task{}, domain.ErrUnauthenticated
	}

	if id == "" {
		return domain.Task{}, fmt.Errorf("%w: task id is required", domain.ErrInvalidInput)
	}

	task, err := ts.store.Get(ctx, id)

	if err != nil {
		return domain.Task{}, storeFailure(err)
	}

	if !task.BelongsTo(principal.UserID) {
		return domain.Task{}, domain.ErrForbidden
	}

	return task, nil
}

func (ts *TaskService) trace(ctx context.Context, operation string, principal domain.Principal, taskID string) (context.Context, func(error)) {
	start := time.Now()

	ctx, span := ts.telemetry.StartServiceSpan(ctx, taskServiceName, operation, principal.UserID, map[string]interface{}{
		"task.id": taskID,
	})

	return ctx, func(err error) {
		ts.telemetry.RecordServiceOperation(ctx, taskServiceName, operation, principal.UserID, time.Since(start), err)
		span.End()
	}
}

// storeFailure passes domain.ErrNotFound through and classifies anything
// else coming out of a store as StoreUnavailable.
func storeFailure(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}

	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
