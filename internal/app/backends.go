// Package app wires configuration into concrete stores and services for the
// command entry points.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/admin"
	"github.com/wuwenbin0122/tasklist/internal/auth"
	"github.com/wuwenbin0122/tasklist/internal/db"
	"github.com/wuwenbin0122/tasklist/internal/memstore"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/todo"
	"github.com/wuwenbin0122/tasklist/internal/utils"
)

// Store is everything the services persist, served by one backend.
type Store interface {
	todo.Store
	auth.UserStore
	admin.Store
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	DeleteUsersWithPrefix(ctx context.Context, prefix string) (int64, error)
}

var (
	_ Store = (*db.Postgres)(nil)
	_ Store = (*memstore.Store)(nil)
)

// Backends holds the opened stores. Close releases them in reverse order.
type Backends struct {
	Store     Store
	Blacklist auth.Blacklist
	Audit     admin.Recorder

	closers []func(context.Context) error
}

// Open connects the stores selected by cfg. Redis and Mongo are optional:
// without them the blacklist stays in process and audit events go to the log.
func Open(ctx context.Context, cfg *utils.Config, logger *zap.Logger) (*Backends, error) {
	b := &Backends{}

	switch cfg.StoreDriver {
	case utils.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		b.Store = memstore.New()
	default:
		postgres, err := db.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		b.addCloser(func(context.Context) error { postgres.Close(); return nil })

		if err := postgres.Ping(ctx); err != nil {
			b.Close(ctx)
			return nil, fmt.Errorf("postgres: ping: %w", err)
		}
		if err := postgres.EnsureSchema(ctx); err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.Store = postgres
	}

	if cfg.Redis.Addr != "" {
		client, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.addCloser(func(context.Context) error { return client.Close() })
		b.Blacklist = db.NewRedisBlacklist(client, cfg.Redis.KeyPrefix)
	} else {
		logger.Info("REDIS_ADDR not set; refresh token blacklist is process-local")
		b.Blacklist = auth.NewMemoryBlacklist()
	}

	if cfg.Mongo.URI != "" {
		mongoStore, err := db.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.addCloser(mongoStore.Close)
		if err := mongoStore.EnsureCollections(ctx); err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.Audit = mongoStore
	} else {
		b.Audit = admin.NewLogRecorder(logger.Named("audit"))
	}

	return b, nil
}

func (b *Backends) addCloser(fn func(context.Context) error) {
	b.closers = append(b.closers, fn)
}

// Close releases every opened backend and returns the first error.
func (b *Backends) Close(ctx context.Context) error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}

// Services are the domain services built over a Backends.
type Services struct {
	Auth  *auth.Service
	Todos *todo.Service
	Admin *admin.Service
}

func NewServices(cfg *utils.Config, b *Backends, logger *zap.Logger) (*Services, error) {
	authService, err := auth.NewService(cfg.Auth.JWTSecret, b.Store, b.Blacklist, logger,
		auth.WithTTL(cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		auth.WithHashCost(cfg.Auth.HashCost),
	)
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:  authService,
		Todos: todo.NewService(b.Store, logger),
		Admin: admin.NewService(b.Store, b.Audit, logger),
	}, nil
}
