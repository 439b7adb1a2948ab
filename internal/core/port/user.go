package port

import (
	"context"

	"taskmanager/internal/core/domain"
)

// UserStore keeps credential records keyed by normalized email. Create
// returns domain.ErrEmailInUse when the email already exists.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, user domain.User) error
}
