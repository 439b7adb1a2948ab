package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

const uniqueViolation = "23505"

type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

var _ port.UserStore = (*UserStore)(nil)

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query, args, err := s.db.QueryBuilder.Select("id", "email", "name", "password", "created_at").
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	var user domain.User

	err = s.db.QueryRow(ctx, query, args...).
		Scan(&user.ID, &user.Email, &user.Name, &user.EncryptedPassword, &user.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}

	return user, err
}

func (s *UserStore) Create(ctx context.Context, user domain.User) error {
	query, args, err := s.db.QueryBuilder.Insert("users").
		Columns("id", "email", "name", "password", "created_at").
		Values(user.ID, user.Email, user.Name, user.EncryptedPassword, user.CreatedAt).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query, args...)

	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailInUse
	}

	return err
}
