// Package seed generates throwaway accounts for exercising the admin views.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/models"
)

const (
	// TestUserPrefix marks generated accounts so they can be removed again.
	TestUserPrefix = "testuser_"
	// TestUserPassword is shared by every generated account.
	TestUserPassword = "testpass123"

	maxAttempts = 20
)

var (
	firstNames = []string{"Alice", "Bob", "Carol", "David", "Emma", "Frank", "Grace", "Henry", "Ivy", "Jack", "伟", "芳", "娜", "敏", "静", "磊"}
	lastNames  = []string{"Smith", "Johnson", "Brown", "Taylor", "Miller", "Wilson", "Moore", "Clark", "王", "李", "张", "刘", "陈", "杨"}
	handles    = []string{"sunny", "river", "maple", "falcon", "pixel", "comet", "harbor", "cedar", "ember", "orbit", "quartz", "willow"}
	domains    = []string{"example.com", "example.org", "example.net"}
)

// Store is the persistence the generator writes through.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	EnsureProfile(ctx context.Context, userID int64, at time.Time) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	DeleteUsersWithPrefix(ctx context.Context, prefix string) (int64, error)
}

type Hasher interface {
	HashPassword(password string) (string, error)
}

type Options struct {
	Count int

	// Rand drives every random choice; nil uses a time-seeded source.
	Rand *rand.Rand

	// Progress, when set, is called after every fifth account.
	Progress func(done, total int)

	Now func() time.Time
}

type Summary struct {
	Created    []models.User
	Active     int
	Staff      int
	Superusers int
}

// DeleteTestUsers removes every previously generated account.
func DeleteTestUsers(ctx context.Context, store Store) (int64, error) {
	deleted, err := store.DeleteUsersWithPrefix(ctx, TestUserPrefix)
	if err != nil {
		return 0, fmt.Errorf("delete existing test users: %w", err)
	}
	return deleted, nil
}

// CreateTestUsers creates opts.Count accounts: three in four active, one in
// four staff, and roughly a third of staff promoted to superuser.
func CreateTestUsers(ctx context.Context, store Store, hasher Hasher, opts Options) (Summary, error) {
	var summary Summary

	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	hash, err := hasher.HashPassword(TestUserPassword)
	if err != nil {
		return summary, err
	}

	for i := 0; i < opts.Count; i++ {
		user, err := createOne(ctx, store, rng, hash, now())
		if err != nil {
			return summary, err
		}

		profile, err := store.EnsureProfile(ctx, user.ID, now())
		if err != nil {
			return summary, fmt.Errorf("ensure profile: %w", err)
		}
		profile.Phone = fmt.Sprintf("1%02d-%04d-%04d", rng.IntN(100), rng.IntN(10000), rng.IntN(10000))
		profile.UpdatedAt = now()
		if err := store.UpdateProfile(ctx, profile); err != nil {
			return summary, fmt.Errorf("update profile: %w", err)
		}
		user.Profile = profile

		summary.Created = append(summary.Created, *user)
		if user.IsActive {
			summary.Active++
		}
		if user.IsStaff {
			summary.Staff++
		}
		if user.IsSuperuser {
			summary.Superusers++
		}

		if opts.Progress != nil && (i+1)%5 == 0 {
			opts.Progress(i+1, opts.Count)
		}
	}

	return summary, nil
}

// createOne retries on username or email collisions.
func createOne(ctx context.Context, store Store, rng *rand.Rand, hash string, joined time.Time) (*models.User, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		handle := pick(rng, handles)
		user := &models.User{
			Username:     fmt.Sprintf("%s%s_%d", TestUserPrefix, handle, 1000+rng.IntN(9000)),
			Email:        fmt.Sprintf("%s.%d@%s", handle, rng.IntN(100000), pick(rng, domains)),
			PasswordHash: hash,
			FirstName:    pick(rng, firstNames),
			LastName:     pick(rng, lastNames),
			IsActive:     rng.IntN(4) != 0,
			IsStaff:      rng.IntN(4) == 0,
			DateJoined:   joined,
		}
		user.IsSuperuser = user.IsStaff && rng.Float64() < 0.3

		err := store.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if verr, ok := apperr.As(err); ok && verr.Kind == apperr.KindValidation {
			continue
		}
		return nil, fmt.Errorf("create test user: %w", err)
	}
	return nil, errors.New("create test user: could not find a free username")
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

// SampleUsernames returns up to n usernames from the summary.
func (s Summary) SampleUsernames(n int) string {
	names := make([]string, 0, n)
	for i := 0; i < len(s.Created) && i < n; i++ {
		names = append(names, s.Created[i].Username)
	}
	return strings.Join(names, ", ")
}
