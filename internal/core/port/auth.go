package port

import (
	"context"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/request"
)

type AuthService interface {
	Registration(ctx context.Context, req *request.SignUpRequest) (*domain.User, error)
	Authenticate(ctx context.Context, req *request.LoginRequest) (*domain.User, error)
	CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error)
}

// IdentityProvider issues and verifies session tokens.
type IdentityProvider interface {
	IssueSession(user domain.User) (string, error)
	VerifySession(token string) (domain.Principal, error)
}
