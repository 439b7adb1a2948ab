// Package database selects and opens the configured task and user stores.
package database

import (
	"context"
	"fmt"

	"taskmanager/internal/adapter/database/memory"
	"taskmanager/internal/adapter/database/postgres"
	"taskmanager/internal/adapter/database/redis"
	"taskmanager/internal/adapter/database/sqlite"
	"taskmanager/internal/core/port"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver      string
	Redis       redis.Config
	SQLitePath  string
	PostgresURL string
	LogQueries  bool
}

type taskStore interface {
	port.TaskStore
	port.Pinger
}

type Stores struct {
	Tasks port.TaskStore
	Users port.UserStore

	pinger port.Pinger
	closer func() error
}

// Open connects to the backend named by cfg.Driver and wraps both stores
// with repository telemetry.
func Open(ctx context.Context, cfg Config, telemetry port.Telemetry) (*Stores, error) {
	var (
		tasks  taskStore
		users  port.UserStore
		closer = func() error { return nil }
	)

	switch cfg.Driver {
	case DriverMemory, "":
		tasks = memory.NewTaskStore()
		users = memory.NewUserStore()

	case DriverRedis:
		db, err := redis.NewDB(ctx, cfg.Redis)

		if err != nil {
			return nil, err
		}

		tasks = redis.NewTaskStore(db)
		users = redis.NewUserStore(db)
		closer = db.Close

	case DriverSQLite:
		db, err := sqlite.NewDB(sqlite.Options{Path: cfg.SQLitePath, LogQueries: cfg.LogQueries})

		if err != nil {
			return nil, err
		}

		tasks = sqlite.NewTaskStore(db)
		users = sqlite.NewUserStore(db)
		closer = db.Close

	case DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.PostgresURL)

		if err != nil {
			return nil, err
		}

		tasks = postgres.NewTaskStore(db)
		users = postgres.NewUserStore(db)
		closer = func() error {
			db.Close()
			return nil
		}

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	return &Stores{
		Tasks:  NewInstrumentedTaskStore(tasks, telemetry),
		Users:  NewInstrumentedUserStore(users, telemetry),
		pinger: tasks,
		closer: closer,
	}, nil
}

func (s *Stores) Ping(ctx context.Context) error {
	return s.pinger.Ping(ctx)
}

func (s *Stores) Close() error {
	return s.closer()
}
