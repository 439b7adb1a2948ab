package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/request"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/util"
)

type AuthService struct {
	repo   port.UserStore
	logger *zap.Logger
}

func NewAuthService(repo port.UserStore, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{repo: repo, logger: logger}
}

func (us *AuthService) Registration(ctx context.Context, req *request.SignUpRequest) (*domain.User, error) {
	email := domain.NormalizeEmail(req.Email)

	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	_, err := us.repo.GetByEmail(ctx, email)

	switch {
	case err == nil:
		return nil, domain.ErrEmailInUse
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	encrypted, err := util.GenerateEncrypt(req.Password)

	if err != nil {
		return nil, fmt.Errorf("%w: encrypting password: %w", domain.ErrIdentityProvider, err)
	}

	name := req.Name

	if name == "" {
		name = domain.DefaultName(email)
	}

	user := domain.User{
		ID:                "user_" + uuid.NewString(),
		Email:             email,
		Name:              name,
		EncryptedPassword: encrypted,
		CreatedAt:         time.Now().UTC(),
	}

	// The store enforces uniqueness too, so a concurrent signup for the
	// same email still ends in ErrEmailInUse.
	if err := us.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailInUse) {
			return nil, domain.ErrEmailInUse
		}

		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	us.logger.Info("Auth#Registration", zap.String("user_id", user.ID), zap.String("email", user.Email))

	return &user, nil
}

func (us *AuthService) Authenticate(ctx context.Context, req *request.LoginRequest) (*domain.User, error) {
	email := domain.NormalizeEmail(req.Email)

	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	user, err := us.repo.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			us.logger.Info("Auth#Authenticate", zap.String("email", email), zap.String("reason", "unknown email"))
			return nil, domain.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	if err := util.ComparePassword(req.Password, user.EncryptedPassword); err != nil {
		us.logger.Info("Auth#Authenticate", zap.String("email", email), zap.String("reason", "password mismatch"))
		return nil, domain.ErrInvalidCredentials
	}

	return &user, nil
}

func (us *AuthService) CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	user, err := us.repo.GetByEmail(ctx, principal.UserID)

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}

		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	return &user, nil
}
