package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
	"github.com/wuwenbin0122/tasklist/internal/validate"
)

var (
	ErrSecretRequired = errors.New("auth: jwt secret required")
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrTokenRevoked   = errors.New("auth: token already revoked")
)

const (
	defaultAccessTTL  = 30 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

// UserStore is the identity storage the auth service needs. Unique
// violations are reported as field validation errors and missing users as
// NotFound.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	EnsureProfile(ctx context.Context, userID int64, at time.Time) (*models.Profile, error)
	SaveAccount(ctx context.Context, update models.AccountUpdate) error
}

type RegisterInput struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"omitempty,email,max=254"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ProfileFields are the editable profile extension fields.
type ProfileFields struct {
	Phone  *string `json:"phone" validate:"omitempty,max=20"`
	Avatar *string `json:"avatar" validate:"omitempty,max=255"`
}

// ProfileUpdateInput is a self-service update. The privileged flags are
// decoded only so their presence can be rejected.
type ProfileUpdateInput struct {
	Username  *string        `json:"username" validate:"omitempty,max=150"`
	Email     *string        `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string        `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string        `json:"last_name" validate:"omitempty,max=150"`
	Profile   *ProfileFields `json:"profile"`

	IsActive    *bool `json:"is_active"`
	IsStaff     *bool `json:"is_staff"`
	IsSuperuser *bool `json:"is_superuser"`
}

type AuthResult struct {
	Tokens TokenPair
	User   models.User
}

// AccessToken is a freshly issued access credential.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	users     UserStore
	blacklist Blacklist
	logger    *zap.Logger

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	hashCost   int
	now        func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithTTL sets the access and refresh token lifetimes. Non-positive values
// keep the defaults.
func WithTTL(access, refresh time.Duration) Option {
	return func(s *Service) {
		if access > 0 {
			s.accessTTL = access
		}
		if refresh > 0 {
			s.refreshTTL = refresh
		}
	}
}

// WithHashCost sets the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(secret string, users UserStore, blacklist Blacklist, logger *zap.Logger, opts ...Option) (*Service, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if blacklist == nil {
		blacklist = NewMemoryBlacklist()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		users:      users,
		blacklist:  blacklist,
		logger:     logger.Named("auth"),
		secret:     []byte(secret),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		hashCost:   bcrypt.DefaultCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HashPassword hashes a plaintext password with the configured cost.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	invalid := apperr.NewValidation()
	if err := validate.Struct(input); err != nil {
		verr, ok := apperr.As(err)
		if !ok {
			return nil, err
		}
		invalid.Merge(verr)
	}
	if input.PasswordConfirm != "" && input.Password != input.PasswordConfirm {
		invalid.Add("password_confirm", i18n.FieldPasswordMismatch)
	}
	if err := invalid.OrNil(); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsActive:     true,
		DateJoined:   s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.attachProfile(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return &AuthResult{Tokens: tokens, User: user.Sanitize()}, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized(i18n.ErrInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperr.Unauthorized(i18n.ErrInvalidCredentials)
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized(i18n.ErrAccountDisabled)
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now
	if err := s.attachProfile(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Tokens: tokens, User: user.Sanitize()}, nil
}

// Logout blacklists the presented refresh token. Malformed, foreign or
// already revoked tokens are reported as a validation error.
func (s *Service) Logout(ctx context.Context, actor policy.Actor, refresh string) error {
	if actor.IsAnonymous() {
		return apperr.Unauthorized(i18n.ErrAuthenticationRequired)
	}
	if strings.TrimSpace(refresh) == "" {
		return apperr.Field("refresh", i18n.FieldRequired)
	}

	claims, err := s.VerifyToken(refresh, tokenTypeRefresh)
	if err != nil {
		return invalidTokenError(err)
	}
	userID, err := claims.UserID()
	if err != nil || userID != actor.ID {
		return invalidTokenError(err)
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return invalidTokenError(err)
		}
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}

	s.logger.Info("user logged out", zap.Int64("user_id", actor.ID))
	return nil
}

func invalidTokenError(cause error) error {
	verr := apperr.NonField(i18n.ErrInvalidToken)
	verr.Cause = cause
	return verr
}

// Refresh exchanges a live refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refresh string) (*AccessToken, error) {
	if strings.TrimSpace(refresh) == "" {
		return nil, apperr.Field("refresh", i18n.FieldRequired)
	}

	claims, err := s.VerifyToken(refresh, tokenTypeRefresh)
	if err != nil {
		return nil, apperr.Unauthorized(i18n.ErrInvalidToken)
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: check blacklist: %w", err)
	}
	if revoked {
		return nil, apperr.Unauthorized(i18n.ErrInvalidToken)
	}

	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.generateToken(user, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &AccessToken{Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves the user behind an access token.
func (s *Service) Authenticate(ctx context.Context, access string) (*models.User, error) {
	claims, err := s.VerifyToken(access, tokenTypeAccess)
	if err != nil {
		return nil, apperr.Unauthorized(i18n.ErrInvalidToken)
	}
	return s.userFromClaims(ctx, claims)
}

func (s *Service) userFromClaims(ctx context.Context, claims *Claims) (*models.User, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperr.Unauthorized(i18n.ErrInvalidToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized(i18n.ErrInvalidToken)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized(i18n.ErrAccountDisabled)
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, actor policy.Actor, input ChangePasswordInput) error {
	user, err := s.currentUser(ctx, actor)
	if err != nil {
		return err
	}

	invalid := apperr.NewValidation()
	if err := validate.Struct(input); err != nil {
		verr, ok := apperr.As(err)
		if !ok {
			return err
		}
		invalid.Merge(verr)
	}
	if input.ConfirmPassword != "" && input.NewPassword != input.ConfirmPassword {
		invalid.Add("confirm_password", i18n.FieldPasswordMismatch)
	}
	if input.OldPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
			invalid.Add("old_password", i18n.FieldOldPasswordWrong)
		}
	}
	if err := invalid.OrNil(); err != nil {
		return err
	}

	hash, err := s.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.Int64("user_id", user.ID))
	return nil
}

// Profile returns the actor's own account with its profile.
func (s *Service) Profile(ctx context.Context, actor policy.Actor) (*models.User, error) {
	user, err := s.currentUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.attachProfile(ctx, user); err != nil {
		return nil, err
	}
	sanitized := user.Sanitize()
	return &sanitized, nil
}

// UpdateProfile applies a self-service update. Privileged flags are read-only
// here and their presence fails with Forbidden. A full update (partial=false)
// requires the username.
func (s *Service) UpdateProfile(ctx context.Context, actor policy.Actor, input ProfileUpdateInput, partial bool) (*models.User, error) {
	user, err := s.currentUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if input.IsActive != nil || input.IsStaff != nil || input.IsSuperuser != nil {
		return nil, apperr.Forbidden(i18n.ErrPermissionDenied)
	}

	trimPtr(input.Username)
	trimPtr(input.Email)
	trimPtr(input.FirstName)
	trimPtr(input.LastName)

	invalid := apperr.NewValidation()
	if (input.Username == nil && !partial) || (input.Username != nil && *input.Username == "") {
		invalid.Add("username", i18n.FieldRequired)
	}
	if err := validate.Struct(input); err != nil {
		verr, ok := apperr.As(err)
		if !ok {
			return nil, err
		}
		invalid.Merge(verr)
	}
	if err := invalid.OrNil(); err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if err := s.attachProfile(ctx, user); err != nil {
		return nil, err
	}
	update := models.AccountUpdate{User: user}
	if input.Profile != nil {
		if input.Profile.Phone != nil {
			user.Profile.Phone = strings.TrimSpace(*input.Profile.Phone)
		}
		if input.Profile.Avatar != nil {
			user.Profile.Avatar = strings.TrimSpace(*input.Profile.Avatar)
		}
		user.Profile.UpdatedAt = s.now()
		update.Profile = user.Profile
	}
	if err := s.users.SaveAccount(ctx, update); err != nil {
		return nil, err
	}

	sanitized := user.Sanitize()
	return &sanitized, nil
}

func (s *Service) currentUser(ctx context.Context, actor policy.Actor) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, apperr.Unauthorized(i18n.ErrAuthenticationRequired)
	}
	user, err := s.users.GetUserByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized(i18n.ErrInvalidToken)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) attachProfile(ctx context.Context, user *models.User) error {
	profile, err := s.users.EnsureProfile(ctx, user.ID, s.now())
	if err != nil {
		return fmt.Errorf("auth: ensure profile: %w", err)
	}
	user.Profile = profile
	return nil
}

func trimPtr(value *string) {
	if value != nil {
		*value = strings.TrimSpace(*value)
	}
}
