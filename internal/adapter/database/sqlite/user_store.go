package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

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

	var (
		user      domain.User
		createdAt string
	)

	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&user.ID, &user.Email, &user.Name, &user.EncryptedPassword, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.User{}, err
	}

	user.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)

	return user, err
}

func (s *UserStore) Create(ctx context.Context, user domain.User) error {
	query, args, err := s.db.QueryBuilder.Insert("users").
		Columns("id", "email", "name", "password", "created_at").
		Values(user.ID, user.Email, user.Name, user.EncryptedPassword, formatTime(user.CreatedAt)).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	var sqliteErr sqlite3.Error

	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return domain.ErrEmailInUse
	}

	return err
}
