package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/auth"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/memstore"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
)

func newTestService(t *testing.T, opts ...auth.Option) (*auth.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	opts = append([]auth.Option{auth.WithHashCost(bcrypt.MinCost)}, opts...)
	svc, err := auth.NewService("test-secret", store, auth.NewMemoryBlacklist(), nil, opts...)
	if err != nil {
		t.Fatalf("unexpected error creating auth service: %v", err)
	}
	return svc, store
}

func registerAlice(t *testing.T, svc *auth.Service) *auth.AuthResult {
	t.Helper()
	result, err := svc.Register(context.Background(), auth.RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "s3cretpass",
		PasswordConfirm: "s3cretpass",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	return result
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerResult := registerAlice(t, svc)
	if registerResult.Tokens.Access == "" || registerResult.Tokens.Refresh == "" {
		t.Fatalf("expected both tokens on registration")
	}
	if registerResult.User.PasswordHash != "" {
		t.Fatalf("expected sanitized user")
	}
	if registerResult.User.Profile == nil {
		t.Fatalf("expected profile to be created with the user")
	}

	user, err := svc.Authenticate(ctx, registerResult.Tokens.Access)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if user.ID != registerResult.User.ID {
		t.Fatalf("expected user %d, got %d", registerResult.User.ID, user.ID)
	}

	if _, err := svc.Authenticate(ctx, registerResult.Tokens.Refresh); err == nil {
		t.Fatalf("refresh token must not authenticate requests")
	}

	_, err = svc.Register(ctx, auth.RegisterInput{
		Username:        "alice",
		Email:           "other@example.com",
		Password:        "another123",
		PasswordConfirm: "another123",
	})
	appErr, ok := apperr.As(err)
	if !ok || !appErr.HasField("username") {
		t.Fatalf("expected duplicate username error, got %v", err)
	}

	loginResult, err := svc.Login(ctx, auth.LoginInput{Username: "alice", Password: "s3cretpass"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loginResult.User.LastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}

	if _, err := svc.Login(ctx, auth.LoginInput{Username: "alice", Password: "wrong-password"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
	if _, err := svc.Login(ctx, auth.LoginInput{Username: "nobody", Password: "whatever1"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), auth.RegisterInput{
		Username:        "bob",
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "different",
	})
	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"email", "password", "password_confirm"} {
		if !appErr.HasField(field) {
			t.Fatalf("expected error on %s, got %v", field, appErr.FieldNames())
		}
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result := registerAlice(t, svc)
	user, err := store.GetUserByID(ctx, result.User.ID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	user.IsActive = false
	if err := store.UpdateUser(ctx, user); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	_, err = svc.Login(ctx, auth.LoginInput{Username: "alice", Password: "s3cretpass"})
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindUnauthorized || appErr.Message.Key != i18n.ErrAccountDisabled {
		t.Fatalf("expected disabled account error, got %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result := registerAlice(t, svc)
	actor := policy.ActorFor(result.User)

	refreshed, err := svc.Refresh(ctx, result.Tokens.Refresh)
	if err != nil {
		t.Fatalf("refresh before logout failed: %v", err)
	}
	if refreshed.Token == "" {
		t.Fatalf("expected a new access token")
	}

	if err := svc.Logout(ctx, actor, result.Tokens.Refresh); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	err = svc.Logout(ctx, actor, result.Tokens.Refresh)
	appErr, ok := apperr.As(err)
	if !ok || !appErr.HasField(i18n.NonFieldErrors) {
		t.Fatalf("expected invalid token on second logout, got %v", err)
	}

	if _, err := svc.Refresh(ctx, result.Tokens.Refresh); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected revoked refresh token to be rejected, got %v", err)
	}
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice := registerAlice(t, svc)
	bob, err := svc.Register(ctx, auth.RegisterInput{Username: "bob", Password: "bobpass123", PasswordConfirm: "bobpass123"})
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	err = svc.Logout(ctx, policy.ActorFor(bob.User), alice.Tokens.Refresh)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for foreign token, got %v", err)
	}
	if err := svc.Logout(ctx, policy.Anonymous(), alice.Tokens.Refresh); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected anonymous logout to be unauthorized, got %v", err)
	}
}

func TestExpiredRefreshToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t,
		auth.WithTTL(time.Minute, time.Hour),
		auth.WithClock(func() time.Time { return now }),
	)

	result := registerAlice(t, svc)
	now = now.Add(2 * time.Hour)

	if _, err := svc.Refresh(context.Background(), result.Tokens.Refresh); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected expired refresh token to be rejected, got %v", err)
	}
}

func TestUpdateProfileRejectsPrivilegedFlags(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result := registerAlice(t, svc)
	actor := policy.ActorFor(result.User)

	staff := true
	if _, err := svc.UpdateProfile(ctx, actor, auth.ProfileUpdateInput{IsStaff: &staff}, true); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	phone := " 555-0100 "
	first := "Alice"
	updated, err := svc.UpdateProfile(ctx, actor, auth.ProfileUpdateInput{
		FirstName: &first,
		Profile:   &auth.ProfileFields{Phone: &phone},
	}, true)
	if err != nil {
		t.Fatalf("partial update failed: %v", err)
	}
	if updated.FirstName != "Alice" || updated.Profile.Phone != "555-0100" {
		t.Fatalf("unexpected profile after update: %+v %+v", updated, updated.Profile)
	}

	if _, err := svc.UpdateProfile(ctx, actor, auth.ProfileUpdateInput{FirstName: &first}, false); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected full update without username to fail validation, got %v", err)
	}
}

func TestUpdateProfileRejectedKeepsProfile(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result := registerAlice(t, svc)
	actor := policy.ActorFor(result.User)
	if err := store.CreateUser(ctx, &models.User{Username: "bob"}); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	taken := "bob"
	phone := "555-0100"
	_, err := svc.UpdateProfile(ctx, actor, auth.ProfileUpdateInput{
		Username: &taken,
		Profile:  &auth.ProfileFields{Phone: &phone},
	}, true)
	if verr, ok := apperr.As(err); !ok || !verr.HasField("username") {
		t.Fatalf("expected username validation error, got %v", err)
	}

	current, err := svc.Profile(ctx, actor)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if current.Username != "alice" || current.Profile.Phone != "" {
		t.Fatalf("expected rejected update to leave the account unchanged, got %q %q", current.Username, current.Profile.Phone)
	}

	username := "alice"
	replaced, err := svc.UpdateProfile(ctx, actor, auth.ProfileUpdateInput{Username: &username}, false)
	if err != nil {
		t.Fatalf("full update failed: %v", err)
	}
	if replaced.Email != "alice@example.com" {
		t.Fatalf("expected omitted email to survive a full update, got %q", replaced.Email)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result := registerAlice(t, svc)
	actor := policy.ActorFor(result.User)

	err := svc.ChangePassword(ctx, actor, auth.ChangePasswordInput{
		OldPassword:     "wrong-old",
		NewPassword:     "brandnew123",
		ConfirmPassword: "brandnew123",
	})
	appErr, ok := apperr.As(err)
	if !ok || !appErr.HasField("old_password") {
		t.Fatalf("expected old password error, got %v", err)
	}

	if err := svc.ChangePassword(ctx, actor, auth.ChangePasswordInput{
		OldPassword:     "s3cretpass",
		NewPassword:     "brandnew123",
		ConfirmPassword: "brandnew123",
	}); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := svc.Login(ctx, auth.LoginInput{Username: "alice", Password: "brandnew123"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestMemoryBlacklist(t *testing.T) {
	blacklist := auth.NewMemoryBlacklist()
	ctx := context.Background()
	until := time.Now().Add(time.Hour)

	if err := blacklist.Revoke(ctx, "jti-1", until); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	if err := blacklist.Revoke(ctx, "jti-1", until); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}

	revoked, err := blacklist.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected jti-1 revoked, got %v %v", revoked, err)
	}
	revoked, _ = blacklist.IsRevoked(ctx, "jti-2")
	if revoked {
		t.Fatalf("unexpected revocation of jti-2")
	}
}
