package port

import (
	"context"
	"time"

	"taskmanager/internal/core/domain"
)

// TaskStore is the key-value collection holding tasks, addressed by task id.
// Get, Update and Delete return domain.ErrNotFound when the id is absent.
type TaskStore interface {
	Get(ctx context.Context, id string) (domain.Task, error)
	Put(ctx context.Context, task domain.Task) error
	Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error)
	Delete(ctx context.Context, id string) error
	Scan(ctx context.Context, userID string) ([]domain.Task, error)
}

type TaskService interface {
	Create(ctx context.Context, principal domain.Principal, title string, description string) (domain.Task, error)
	List(ctx context.Context, principal domain.Principal) ([]domain.Task, error)
	Get(ctx context.Context, principal domain.Principal, id string) (domain.Task, error)
	Update(ctx context.Context, principal domain.Principal, id string, patch domain.TaskPatch) (domain.Task, error)
	Delete(ctx context.Context, principal domain.Principal, id string) error
}

// Pinger is implemented by stores that can report their own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
