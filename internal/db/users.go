package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/models"
)

const userColumns = `u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
	u.is_active, u.is_staff, u.is_superuser, u.date_joined, u.last_login,
	COALESCE((SELECT array_agg(g.name ORDER BY g.name) FROM user_groups ug
		JOIN auth_groups g ON g.id = ug.group_id WHERE ug.user_id = u.id), '{}')`

type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanUser(row rowScanner, extra ...any) (*models.User, error) {
	var user models.User
	dest := []any{
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.IsActive, &user.IsStaff, &user.IsSuperuser, &user.DateJoined, &user.LastLogin,
		&user.Groups,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts the user and an empty profile in one transaction.
func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertUser = `INSERT INTO users (username, email, password_hash, first_name, last_name,
		is_active, is_staff, is_superuser, date_joined)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := tx.QueryRow(ctx, insertUser,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsActive, user.IsStaff, user.IsSuperuser, user.DateJoined,
	).Scan(&user.ID); err != nil {
		return translate("insert user", err, i18n.ErrUserNotFound)
	}

	const insertProfile = `INSERT INTO profiles (user_id, created_at, updated_at) VALUES ($1, $2, $2)`
	if _, err := tx.Exec(ctx, insertProfile, user.ID, user.DateJoined); err != nil {
		return translate("insert profile", err, i18n.ErrUserNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	user, err := scanUser(p.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate("get user", err, i18n.ErrUserNotFound)
	}
	return user, nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.username = $1`
	user, err := scanUser(p.Pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, translate("get user by username", err, i18n.ErrUserNotFound)
	}
	return user, nil
}

func (p *Postgres) UpdateUser(ctx context.Context, user *models.User) error {
	return updateUser(ctx, p.Pool, user)
}

func updateUser(ctx context.Context, q querier, user *models.User) error {
	const query = `UPDATE users SET username = $2, email = $3, first_name = $4, last_name = $5,
		is_active = $6, is_staff = $7, is_superuser = $8 WHERE id = $1`
	tag, err := q.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName,
		user.IsActive, user.IsStaff, user.IsSuperuser,
	)
	if err != nil {
		return translate("update user", err, i18n.ErrUserNotFound)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	return nil
}

func (p *Postgres) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return p.execUser(ctx, "update password", `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (p *Postgres) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return p.execUser(ctx, "touch last login", `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
}

// DeleteUser removes the user. Profiles, memberships and owned todos go with
// it through ON DELETE CASCADE.
func (p *Postgres) DeleteUser(ctx context.Context, id int64) error {
	return p.execUser(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

func (p *Postgres) execUser(ctx context.Context, op, query string, args ...any) error {
	tag, err := p.Pool.Exec(ctx, query, args...)
	if err != nil {
		return translate(op, err, i18n.ErrUserNotFound)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	return nil
}

// DeleteUsersWithPrefix removes every user whose username starts with prefix.
func (p *Postgres) DeleteUsersWithPrefix(ctx context.Context, prefix string) (int64, error) {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM users WHERE starts_with(username, $1)`, prefix)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete users with prefix: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListUsers returns users matching search with their profiles, newest first.
func (p *Postgres) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	var (
		where string
		args  []any
	)
	if search = strings.TrimSpace(search); search != "" {
		where = ` WHERE u.username ILIKE $1 OR u.email ILIKE $1 OR u.first_name ILIKE $1 OR u.last_name ILIKE $1`
		args = append(args, likePattern(search))
	}

	query := `SELECT ` + userColumns + `, p.phone, p.avatar, p.created_at, p.updated_at
		FROM users u LEFT JOIN profiles p ON p.user_id = u.id` + where +
		` ORDER BY u.date_joined DESC, u.id DESC`

	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var (
			phone, avatar    *string
			created, updated *time.Time
		)
		user, err := scanUser(rows, &phone, &avatar, &created, &updated)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		if created != nil {
			user.Profile = &models.Profile{
				UserID:    user.ID,
				Phone:     deref(phone),
				Avatar:    deref(avatar),
				CreatedAt: *created,
				UpdatedAt: deref(updated),
			}
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	return users, nil
}

func (p *Postgres) UserStats(ctx context.Context, since time.Time) (models.UserStats, error) {
	const query = `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE is_active),
		COUNT(*) FILTER (WHERE is_staff),
		COUNT(*) FILTER (WHERE is_superuser),
		COUNT(*) FILTER (WHERE date_joined >= $1),
		COUNT(*) FILTER (WHERE last_login >= $1)
		FROM users`

	var stats models.UserStats
	if err := p.Pool.QueryRow(ctx, query, since).Scan(
		&stats.TotalUsers, &stats.ActiveUsers, &stats.StaffUsers,
		&stats.Superusers, &stats.RecentRegistrations, &stats.RecentLogins,
	); err != nil {
		return models.UserStats{}, fmt.Errorf("postgres: user stats: %w", err)
	}
	return stats, nil
}

// EnsureProfile returns the user's profile, creating it when missing.
func (p *Postgres) EnsureProfile(ctx context.Context, userID int64, at time.Time) (*models.Profile, error) {
	const query = `INSERT INTO profiles (user_id, created_at, updated_at) VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, phone, avatar, created_at, updated_at`

	var profile models.Profile
	if err := p.Pool.QueryRow(ctx, query, userID, at).Scan(
		&profile.UserID, &profile.Phone, &profile.Avatar, &profile.CreatedAt, &profile.UpdatedAt,
	); err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperr.NotFound(i18n.ErrUserNotFound)
		}
		return nil, translate("ensure profile", err, i18n.ErrUserNotFound)
	}
	return &profile, nil
}

func (p *Postgres) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return updateProfile(ctx, p.Pool, profile)
}

func updateProfile(ctx context.Context, q querier, profile *models.Profile) error {
	const query = `UPDATE profiles SET phone = $2, avatar = $3, updated_at = $4 WHERE user_id = $1`
	tag, err := q.Exec(ctx, query, profile.UserID, profile.Phone, profile.Avatar, profile.UpdatedAt)
	if err != nil {
		return translate("update profile", err, i18n.ErrUserNotFound)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	return nil
}

// SetUserGroups replaces the user's memberships with the named groups.
// Unknown names are reported on the groups field and nothing is changed.
func (p *Postgres) SetUserGroups(ctx context.Context, userID int64, names []string) error {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: check user: %w", err)
	}
	if !exists {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	if err := setUserGroups(ctx, tx, userID, names); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// SaveAccount writes the user row, memberships and profile in one
// transaction. Any failure rolls back the whole update.
func (p *Postgres) SaveAccount(ctx context.Context, update models.AccountUpdate) error {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := updateUser(ctx, tx, update.User); err != nil {
		return err
	}
	if update.Groups != nil {
		if err := setUserGroups(ctx, tx, update.User.ID, *update.Groups); err != nil {
			return err
		}
	}
	if update.Profile != nil {
		profile := *update.Profile
		profile.UserID = update.User.ID
		if err := updateProfile(ctx, tx, &profile); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func setUserGroups(ctx context.Context, q querier, userID int64, names []string) error {
	rows, err := q.Query(ctx, `SELECT id, name FROM auth_groups WHERE name = ANY($1)`, names)
	if err != nil {
		return fmt.Errorf("postgres: resolve groups: %w", err)
	}
	byName, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Group, error) {
		var g models.Group
		err := row.Scan(&g.ID, &g.Name)
		return g, err
	})
	if err != nil {
		return fmt.Errorf("postgres: resolve groups: %w", err)
	}

	known := make(map[string]int64, len(byName))
	for _, g := range byName {
		known[g.Name] = g.ID
	}
	invalid := apperr.NewValidation()
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			invalid.Add("groups", i18n.FieldUnknownGroup, name)
			continue
		}
		ids = append(ids, id)
	}
	if err := invalid.OrNil(); err != nil {
		return err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if _, err := q.Exec(ctx, `DELETE FROM user_groups WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("postgres: clear groups: %w", err)
	}
	if len(ids) > 0 {
		const insert = `INSERT INTO user_groups (user_id, group_id)
			SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`
		if _, err := q.Exec(ctx, insert, userID, ids); err != nil {
			return fmt.Errorf("postgres: add groups: %w", err)
		}
	}
	return nil
}

func likePattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(search) + "%"
}

func deref[T any](value *T) T {
	var zero T
	if value == nil {
		return zero
	}
	return *value
}
