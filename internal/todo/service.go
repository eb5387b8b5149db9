// Package todo implements the todo lifecycle on top of the access policy.
package todo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
	"github.com/wuwenbin0122/tasklist/internal/validate"
)

// Store persists todos. Lookups outside the given scope report NotFound.
type Store interface {
	CreateTodo(ctx context.Context, todo *models.Todo) error
	GetTodo(ctx context.Context, scope policy.TodoScope, id int64) (*models.Todo, error)
	ListTodos(ctx context.Context, filter policy.TodoFilter) ([]models.Todo, error)
	UpdateTodo(ctx context.Context, todo *models.Todo) error
	ToggleTodo(ctx context.Context, id int64, at time.Time) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
	ListAnonymousTodosBefore(ctx context.Context, cutoff time.Time) ([]models.Todo, error)
	DeleteAnonymousTodosBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service exposes the todo operations for an actor.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps and cleanup cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a todo Service.
func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  store,
		logger: logger.Named("todo"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is the payload for a new todo.
type CreateInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// UpdateInput carries the fields to change. Nil fields are left untouched;
// a full update differs only in requiring the title.
type UpdateInput struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// AdminListOptions narrows the staff-only todo listing.
type AdminListOptions struct {
	Search   string
	Status   string
	Ordering string
}

// List returns every todo visible to actor in the default ordering.
func (s *Service) List(ctx context.Context, actor policy.Actor) ([]models.Todo, error) {
	return s.list(ctx, policy.FilterFor(actor))
}

// Completed returns the visible todos that are completed.
func (s *Service) Completed(ctx context.Context, actor policy.Actor) ([]models.Todo, error) {
	filter := policy.FilterFor(actor)
	filter.Status = policy.StatusCompleted
	return s.list(ctx, filter)
}

// Pending returns the visible todos that are still active.
func (s *Service) Pending(ctx context.Context, actor policy.Actor) ([]models.Todo, error) {
	filter := policy.FilterFor(actor)
	filter.Status = policy.StatusPending
	return s.list(ctx, filter)
}

// AdminList returns all todos narrowed by the search, status and ordering
// parameters. Only actors that can view all todos may call it.
func (s *Service) AdminList(ctx context.Context, actor policy.Actor, opts AdminListOptions) ([]models.Todo, error) {
	if actor.IsAnonymous() {
		return nil, apperr.Unauthorized(i18n.ErrAuthenticationRequired)
	}
	if !policy.CanViewAll(actor) {
		return nil, apperr.Forbidden(i18n.ErrPermissionDenied)
	}

	filter := policy.FilterFor(actor)
	filter.Search = strings.TrimSpace(opts.Search)
	filter.Status = policy.ParseStatus(opts.Status)
	filter.Ordering = policy.ParseOrdering(opts.Ordering)
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter policy.TodoFilter) ([]models.Todo, error) {
	todos, err := s.store.ListTodos(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Create stores a new todo owned per the policy.
func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (*models.Todo, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	todo := &models.Todo{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		OwnerID:     policy.ResolveOwnerOnCreate(actor),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !actor.IsAnonymous() {
		todo.OwnerUsername = actor.Username
	}

	if err := s.store.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}

	s.logger.Debug("todo created", zap.Int64("todo_id", todo.ID), zap.Bool("anonymous", todo.IsAnonymous()))
	return todo, nil
}

// Get returns a single visible todo.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (*models.Todo, error) {
	return s.store.GetTodo(ctx, policy.VisibleTodos(actor), id)
}

// Update changes title, description or completion state. A full update
// (partial=false) requires the title.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, in UpdateInput, partial bool) (*models.Todo, error) {
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		in.Title = &trimmed
	}

	invalid := apperr.NewValidation()
	if (in.Title == nil && !partial) || (in.Title != nil && *in.Title == "") {
		invalid.Add("title", i18n.FieldRequired)
	}
	if err := validate.Struct(in); err != nil {
		verr, ok := apperr.As(err)
		if !ok {
			return nil, err
		}
		invalid.Merge(verr)
	}
	if err := invalid.OrNil(); err != nil {
		return nil, err
	}

	todo, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		todo.Title = *in.Title
	}
	if in.Description != nil {
		todo.Description = *in.Description
	}
	if in.Completed != nil {
		todo.Completed = *in.Completed
	}
	todo.UpdatedAt = s.now()

	if err := s.store.UpdateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return todo, nil
}

// Toggle flips the completion state and returns the post-toggle record.
func (s *Service) Toggle(ctx context.Context, actor policy.Actor, id int64) (*models.Todo, error) {
	if _, err := s.modifiable(ctx, actor, id); err != nil {
		return nil, err
	}

	todo, err := s.store.ToggleTodo(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("toggle todo: %w", err)
	}
	return todo, nil
}

// Delete removes a todo.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	if _, err := s.modifiable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteTodo(ctx, id); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// modifiable loads a todo through the actor's visibility scope, so todos the
// actor cannot see are reported as NotFound, then applies the modify check.
func (s *Service) modifiable(ctx context.Context, actor policy.Actor, id int64) (*models.Todo, error) {
	todo, err := s.store.GetTodo(ctx, policy.VisibleTodos(actor), id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyTodo(actor, *todo) {
		return nil, apperr.Forbidden(i18n.ErrPermissionDenied)
	}
	return todo, nil
}
