// Package admin implements the staff-only management surface: user
// accounts and their privilege flags, permission groups and dashboard stats.
package admin

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
	"github.com/wuwenbin0122/tasklist/internal/validate"
)

// StatsWindow is how far back the dashboard counts registrations and logins.
const StatsWindow = 30 * 24 * time.Hour

// Store is the persistence the admin service needs.
type Store interface {
	ListUsers(ctx context.Context, search string) ([]models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	SaveAccount(ctx context.Context, update models.AccountUpdate) error
	UserStats(ctx context.Context, since time.Time) (models.UserStats, error)
	EnsureProfile(ctx context.Context, userID int64, at time.Time) (*models.Profile, error)

	ListGroups(ctx context.Context) ([]models.Group, error)
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	CreateGroup(ctx context.Context, group *models.Group) error
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id int64) error
}

type Service struct {
	store  Store
	audit  Recorder
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds an admin Service. A nil recorder logs audit events
// through logger.
func NewService(store Store, audit Recorder, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("admin")
	if audit == nil {
		audit = NewLogRecorder(logger)
	}
	s := &Service{
		store:  store,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProfileInput carries editable profile fields.
type ProfileInput struct {
	Phone  *string `json:"phone" validate:"omitempty,max=20"`
	Avatar *string `json:"avatar" validate:"omitempty,max=255"`
}

// UserUpdateInput is a staff edit of another account. Nil fields are left
// untouched; a full update differs only in requiring the username.
type UserUpdateInput struct {
	Username    *string       `json:"username" validate:"omitempty,max=150"`
	Email       *string       `json:"email" validate:"omitempty,email,max=254"`
	FirstName   *string       `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string       `json:"last_name" validate:"omitempty,max=150"`
	IsActive    *bool         `json:"is_active"`
	IsStaff     *bool         `json:"is_staff"`
	IsSuperuser *bool         `json:"is_superuser"`
	Groups      *[]string     `json:"groups"`
	Profile     *ProfileInput `json:"profile"`
}

type GroupInput struct {
	Name        *string   `json:"name" validate:"omitempty,max=150"`
	Permissions *[]string `json:"permissions"`
}

func authorize(actor policy.Actor) error {
	if actor.IsAnonymous() {
		return apperr.Unauthorized(i18n.ErrAuthenticationRequired)
	}
	if !policy.CanViewAll(actor) {
		return apperr.Forbidden(i18n.ErrPermissionDenied)
	}
	return nil
}

// ListUsers returns accounts matching search, newest first.
func (s *Service) ListUsers(ctx context.Context, actor policy.Actor, search string) ([]models.User, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, actor policy.Actor, id int64) (*models.User, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, id)
}

func (s *Service) loadUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.EnsureProfile(ctx, user.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	user.Profile = profile
	return user, nil
}

// UpdateUser applies a staff edit. Changing a privileged flag is checked
// against the policy and refused with Forbidden rather than dropped.
func (s *Service) UpdateUser(ctx context.Context, actor policy.Actor, id int64, in UserUpdateInput, partial bool) (*models.User, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}

	trimPtr(in.Username)
	trimPtr(in.Email)

	invalid := apperr.NewValidation()
	if (in.Username == nil && !partial) || (in.Username != nil && *in.Username == "") {
		invalid.Add("username", i18n.FieldRequired)
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

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	flags := []struct {
		flag  policy.UserFlag
		value *bool
		field *bool
	}{
		{policy.FlagActive, in.IsActive, &user.IsActive},
		{policy.FlagStaff, in.IsStaff, &user.IsStaff},
		{policy.FlagSuperuser, in.IsSuperuser, &user.IsSuperuser},
	}
	for _, f := range flags {
		if f.value == nil || *f.value == *f.field {
			continue
		}
		if !policy.CanSetUserFlag(actor, *user, f.flag) {
			return nil, apperr.Forbidden(i18n.ErrPermissionDenied)
		}
		*f.field = *f.value
		changes[string(f.flag)] = *f.value
	}

	setString(&user.Username, in.Username, "username", changes)
	setString(&user.Email, in.Email, "email", changes)
	setString(&user.FirstName, in.FirstName, "first_name", changes)
	setString(&user.LastName, in.LastName, "last_name", changes)

	update := models.AccountUpdate{User: user}
	if in.Groups != nil {
		groups := dedupe(*in.Groups)
		update.Groups = &groups
		changes["groups"] = groups
	}
	if in.Profile != nil {
		profile := *user.Profile
		setString(&profile.Phone, in.Profile.Phone, "phone", changes)
		setString(&profile.Avatar, in.Profile.Avatar, "avatar", changes)
		profile.UpdatedAt = s.now()
		update.Profile = &profile
	}

	if err := s.store.SaveAccount(ctx, update); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.record(ctx, actor, "user.update", "user", user.ID, changes)
	return s.loadUser(ctx, user.ID)
}

// SetFlag sets one privileged flag on a user account.
func (s *Service) SetFlag(ctx context.Context, actor policy.Actor, id int64, flag policy.UserFlag, value bool) (*models.User, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanSetUserFlag(actor, *user, flag) {
		return nil, apperr.Forbidden(i18n.ErrPermissionDenied)
	}

	switch flag {
	case policy.FlagActive:
		user.IsActive = value
	case policy.FlagStaff:
		user.IsStaff = value
	case policy.FlagSuperuser:
		user.IsSuperuser = value
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("set %s: %w", flag, err)
	}

	s.record(ctx, actor, "user.set_flag", "user", user.ID, map[string]any{string(flag): value})
	return user, nil
}

// DeleteUser removes an account and everything it owns.
func (s *Service) DeleteUser(ctx context.Context, actor policy.Actor, id int64) error {
	if err := authorize(actor); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.record(ctx, actor, "user.delete", "user", id, nil)
	return nil
}

// DashboardStats counts accounts, with registrations and logins limited to
// the last StatsWindow.
func (s *Service) DashboardStats(ctx context.Context, actor policy.Actor) (models.UserStats, error) {
	if err := authorize(actor); err != nil {
		return models.UserStats{}, err
	}
	stats, err := s.store.UserStats(ctx, s.now().Add(-StatsWindow))
	if err != nil {
		return models.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

// Permissions lists the codenames a group may be granted.
func (s *Service) Permissions(actor policy.Actor) ([]string, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return slices.Clone(policy.Permissions), nil
}

func (s *Service) ListGroups(ctx context.Context, actor policy.Actor) ([]models.Group, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *Service) GetGroup(ctx context.Context, actor policy.Actor, id int64) (*models.Group, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return s.store.GetGroup(ctx, id)
}

func (s *Service) CreateGroup(ctx context.Context, actor policy.Actor, in GroupInput) (*models.Group, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if err := validateGroup(&in, false); err != nil {
		return nil, err
	}

	group := &models.Group{Name: *in.Name, Permissions: []string{}}
	if in.Permissions != nil {
		group.Permissions = dedupe(*in.Permissions)
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.record(ctx, actor, "group.create", "group", group.ID, map[string]any{"name": group.Name, "permissions": group.Permissions})
	return group, nil
}

func (s *Service) UpdateGroup(ctx context.Context, actor policy.Actor, id int64, in GroupInput, partial bool) (*models.Group, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if err := validateGroup(&in, partial); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	setString(&group.Name, in.Name, "name", changes)
	if in.Permissions != nil {
		group.Permissions = dedupe(*in.Permissions)
		changes["permissions"] = group.Permissions
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}

	s.record(ctx, actor, "group.update", "group", group.ID, changes)
	return group, nil
}

func (s *Service) DeleteGroup(ctx context.Context, actor policy.Actor, id int64) error {
	if err := authorize(actor); err != nil {
		return err
	}
	if err := s.store.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.record(ctx, actor, "group.delete", "group", id, nil)
	return nil
}

func validateGroup(in *GroupInput, partial bool) error {
	invalid := apperr.NewValidation()
	if err := validate.Struct(in); err != nil {
		verr, ok := apperr.As(err)
		if !ok {
			return err
		}
		invalid.Merge(verr)
	}

	trimPtr(in.Name)
	if (in.Name == nil && !partial) || (in.Name != nil && *in.Name == "") {
		invalid.Add("name", i18n.FieldRequired)
	}
	if in.Permissions != nil {
		for _, codename := range *in.Permissions {
			if !policy.IsKnownPermission(codename) {
				invalid.Add("permissions", i18n.FieldUnknownPerm, codename)
			}
		}
	}
	return invalid.OrNil()
}

func (s *Service) record(ctx context.Context, actor policy.Actor, action, targetType string, targetID int64, changes map[string]any) {
	event := models.AuditEvent{
		ActorID:    actor.ID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Changes:    changes,
		OccurredAt: s.now(),
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record audit event", zap.String("action", action), zap.Error(err))
	}
}

func setString(dst *string, value *string, name string, changes map[string]any) {
	if value == nil || *value == *dst {
		return
	}
	*dst = *value
	changes[name] = *value
}

func trimPtr(value *string) {
	if value != nil {
		*value = strings.TrimSpace(*value)
	}
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
