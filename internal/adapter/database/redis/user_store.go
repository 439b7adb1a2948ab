package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

type userRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

var _ port.UserStore = (*UserStore)(nil)

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	data, err := s.db.Get(ctx, s.db.userKey(email)).Bytes()

	if errors.Is(err, redis.Nil) {
		return domain.User{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.User{}, err
	}

	var record userRecord

	if err := json.Unmarshal(data, &record); err != nil {
		return domain.User{}, err
	}

	return domain.User{
		ID:                record.ID,
		Email:             record.Email,
		Name:              record.Name,
		EncryptedPassword: record.Password,
		CreatedAt:         record.CreatedAt,
	}, nil
}

// Create writes the record only if no user holds the email yet.
func (s *UserStore) Create(ctx context.Context, user domain.User) error {
	data, err := json.Marshal(userRecord{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Password:  user.EncryptedPassword,
		CreatedAt: user.CreatedAt,
	})

	if err != nil {
		return err
	}

	created, err := s.db.SetNX(ctx, s.db.userKey(user.Email), data, 0).Result()

	if err != nil {
		return err
	}

	if !created {
		return domain.ErrEmailInUse
	}

	return nil
}
