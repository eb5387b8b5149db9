package seed

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuwenbin0122/tasklist/internal/memstore"
	"github.com/wuwenbin0122/tasklist/internal/models"
)

type plainHasher struct{ calls int }

func (h *plainHasher) HashPassword(password string) (string, error) {
	h.calls++
	return "hashed:" + password, nil
}

func TestCreateTestUsers(t *testing.T) {
	store := memstore.New()
	hasher := &plainHasher{}
	ctx := context.Background()

	var progress []int
	summary, err := CreateTestUsers(ctx, store, hasher, Options{
		Count:    12,
		Rand:     rand.New(rand.NewPCG(1, 2)),
		Progress: func(done, _ int) { progress = append(progress, done) },
		Now:      func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	assert.Len(t, summary.Created, 12)
	assert.Equal(t, 1, hasher.calls, "the password is hashed once and shared")
	assert.Equal(t, []int{5, 10}, progress)

	for _, user := range summary.Created {
		assert.True(t, strings.HasPrefix(user.Username, TestUserPrefix), user.Username)
		require.NotNil(t, user.Profile)
		assert.NotEmpty(t, user.Profile.Phone)
		if user.IsSuperuser {
			assert.True(t, user.IsStaff, "superusers are drawn from staff")
		}
	}
	assert.LessOrEqual(t, summary.Superusers, summary.Staff)
	assert.Len(t, strings.Split(summary.SampleUsernames(3), ", "), 3)
}

func TestDeleteTestUsersKeepsOthers(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "alice"}))
	_, err := CreateTestUsers(ctx, store, &plainHasher{}, Options{Count: 3, Rand: rand.New(rand.NewPCG(3, 4))})
	require.NoError(t, err)

	deleted, err := DeleteTestUsers(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	users, err := store.ListUsers(ctx, "")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}
