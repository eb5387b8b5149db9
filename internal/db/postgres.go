// Package db holds the Postgres, Redis and Mongo backed stores.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wuwenbin0122/tasklist/internal/utils"
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, cfg utils.PostgresConfig) (*Postgres, error) {
	dsn := cfg.BuildDSN()
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return fmt.Errorf("postgres: pool not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.Pool.Ping(ctx)
}

// EnsureSchema creates the tables and indexes if they do not exist. It is
// idempotent and runs at startup.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return fmt.Errorf("postgres: pool not initialised")
	}

	statements := []string{
		strings.Join([]string{
			"CREATE TABLE IF NOT EXISTS users (",
			"    id BIGSERIAL PRIMARY KEY,",
			"    username VARCHAR(150) NOT NULL,",
			"    email VARCHAR(254) NOT NULL DEFAULT '',",
			"    password_hash TEXT NOT NULL,",
			"    first_name VARCHAR(150) NOT NULL DEFAULT '',",
			"    last_name VARCHAR(150) NOT NULL DEFAULT '',",
			"    is_active BOOLEAN NOT NULL DEFAULT TRUE,",
			"    is_staff BOOLEAN NOT NULL DEFAULT FALSE,",
			"    is_superuser BOOLEAN NOT NULL DEFAULT FALSE,",
			"    date_joined TIMESTAMPTZ NOT NULL DEFAULT NOW(),",
			"    last_login TIMESTAMPTZ,",
			"    CONSTRAINT " + constraintUsername + " UNIQUE (username)",
			")",
		}, "\n"),
		"CREATE UNIQUE INDEX IF NOT EXISTS " + constraintEmail + " ON users (lower(email)) WHERE email <> ''",
		strings.Join([]string{
			"CREATE TABLE IF NOT EXISTS profiles (",
			"    user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,",
			"    phone VARCHAR(20) NOT NULL DEFAULT '',",
			"    avatar VARCHAR(255) NOT NULL DEFAULT '',",
			"    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),",
			"    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
			")",
		}, "\n"),
		strings.Join([]string{
			"CREATE TABLE IF NOT EXISTS auth_groups (",
			"    id BIGSERIAL PRIMARY KEY,",
			"    name VARCHAR(150) NOT NULL,",
			"    permissions TEXT[] NOT NULL DEFAULT '{}',",
			"    CONSTRAINT " + constraintGroupName + " UNIQUE (name)",
			")",
		}, "\n"),
		strings.Join([]string{
			"CREATE TABLE IF NOT EXISTS user_groups (",
			"    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,",
			"    group_id BIGINT NOT NULL REFERENCES auth_groups(id) ON DELETE CASCADE,",
			"    PRIMARY KEY (user_id, group_id)",
			")",
		}, "\n"),
		strings.Join([]string{
			"CREATE TABLE IF NOT EXISTS todos (",
			"    id BIGSERIAL PRIMARY KEY,",
			"    title VARCHAR(200) NOT NULL,",
			"    description TEXT NOT NULL DEFAULT '',",
			"    completed BOOLEAN NOT NULL DEFAULT FALSE,",
			"    owner_id BIGINT REFERENCES users(id) ON DELETE CASCADE,",
			"    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),",
			"    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
			")",
		}, "\n"),
		"CREATE INDEX IF NOT EXISTS todos_owner_created_idx ON todos (owner_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS todos_anonymous_created_idx ON todos (created_at) WHERE owner_id IS NULL",
	}

	for _, stmt := range statements {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}

	return nil
}
