// Package redis stores tasks and users in Redis, the managed key-value
// store of the production profile.
//
// Layout under the configured prefix:
//
//	task:{id}          hash with the task fields
//	user-tasks:{owner} set of task ids owned by a user
//	user:{email}       JSON credential record
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type DB struct {
	*redis.Client
	prefix string
}

func NewDB(ctx context.Context, config Config) (*DB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", config.Addr, err)
	}

	return &DB{Client: client, prefix: config.Prefix}, nil
}

func (db *DB) taskKey(id string) string {
	return db.prefix + "task:" + id
}

func (db *DB) ownerIndexPrefix() string {
	return db.prefix + "user-tasks:"
}

func (db *DB) ownerIndexKey(userID string) string {
	return db.ownerIndexPrefix() + userID
}

func (db *DB) userKey(email string) string {
	return db.prefix + "user:" + email
}
