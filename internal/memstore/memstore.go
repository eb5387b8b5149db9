// Package memstore is a process-local implementation of the user, group and
// todo stores. It backs tests and STORE_DRIVER=memory development servers.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
)

type Store struct {
	mu sync.RWMutex

	nextUserID  int64
	nextTodoID  int64
	nextGroupID int64

	users      map[int64]*models.User
	profiles   map[int64]*models.Profile
	todos      map[int64]*models.Todo
	groups     map[int64]*models.Group
	membership map[int64][]int64
}

func New() *Store {
	return &Store{
		users:      make(map[int64]*models.User),
		profiles:   make(map[int64]*models.Profile),
		todos:      make(map[int64]*models.Todo),
		groups:     make(map[int64]*models.Group),
		membership: make(map[int64][]int64),
	}
}

// Users

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueLocked(0, user.Username, user.Email); err != nil {
		return err
	}

	s.nextUserID++
	user.ID = s.nextUserID
	stored := *user
	stored.Profile = nil
	stored.Groups = nil
	s.users[user.ID] = &stored
	s.profiles[user.ID] = &models.Profile{UserID: user.ID, CreatedAt: user.DateJoined, UpdatedAt: user.DateJoined}
	return nil
}

func (s *Store) checkUniqueLocked(selfID int64, username, email string) error {
	emailKey := strings.ToLower(strings.TrimSpace(email))
	for id, existing := range s.users {
		if id == selfID {
			continue
		}
		if existing.Username == username {
			return apperr.Field("username", i18n.FieldUsernameTaken)
		}
		if emailKey != "" && strings.ToLower(existing.Email) == emailKey {
			return apperr.Field("email", i18n.FieldEmailTaken)
		}
	}
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound(i18n.ErrUserNotFound)
	}
	return s.userCopyLocked(user), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return s.userCopyLocked(user), nil
		}
	}
	return nil, apperr.NotFound(i18n.ErrUserNotFound)
}

func (s *Store) userCopyLocked(user *models.User) *models.User {
	out := *user
	out.Profile = nil
	out.Groups = s.groupNamesLocked(user.ID)
	return &out
}

func (s *Store) groupNamesLocked(userID int64) []string {
	names := make([]string, 0, len(s.membership[userID]))
	for _, groupID := range s.membership[userID] {
		if group, ok := s.groups[groupID]; ok {
			names = append(names, group.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	if err := s.checkUniqueLocked(user.ID, user.Username, user.Email); err != nil {
		return err
	}
	applyUser(existing, user)
	return nil
}

func applyUser(existing, user *models.User) {
	existing.Username = user.Username
	existing.Email = user.Email
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.IsActive = user.IsActive
	existing.IsStaff = user.IsStaff
	existing.IsSuperuser = user.IsSuperuser
}

func (s *Store) UpdatePassword(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	user.PasswordHash = hash
	return nil
}

func (s *Store) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	user.LastLogin = &at
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	delete(s.users, id)
	delete(s.profiles, id)
	delete(s.membership, id)
	for todoID, todo := range s.todos {
		if todo.OwnerID != nil && *todo.OwnerID == id {
			delete(s.todos, todoID)
		}
	}
	return nil
}

// DeleteUsersWithPrefix removes every user whose username starts with prefix.
func (s *Store) DeleteUsersWithPrefix(ctx context.Context, prefix string) (int64, error) {
	s.mu.RLock()
	ids := make([]int64, 0)
	for id, user := range s.users {
		if strings.HasPrefix(user.Username, prefix) {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if err := s.DeleteUser(ctx, id); err != nil {
			return 0, err
		}
	}
	return int64(len(ids)), nil
}

// ListUsers returns users whose username, email, first or last name contain
// search (case-insensitive), newest first.
func (s *Store) ListUsers(_ context.Context, search string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		if needle != "" && !userMatches(user, needle) {
			continue
		}
		listed := s.userCopyLocked(user)
		if profile, ok := s.profiles[user.ID]; ok {
			p := *profile
			listed.Profile = &p
		}
		out = append(out, *listed)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DateJoined.Equal(out[j].DateJoined) {
			return out[i].ID > out[j].ID
		}
		return out[i].DateJoined.After(out[j].DateJoined)
	})
	return out, nil
}

func userMatches(user *models.User, needle string) bool {
	for _, field := range []string{user.Username, user.Email, user.FirstName, user.LastName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *Store) UserStats(_ context.Context, since time.Time) (models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats models.UserStats
	for _, user := range s.users {
		stats.TotalUsers++
		if user.IsActive {
			stats.ActiveUsers++
		}
		if user.IsStaff {
			stats.StaffUsers++
		}
		if user.IsSuperuser {
			stats.Superusers++
		}
		if !user.DateJoined.Before(since) {
			stats.RecentRegistrations++
		}
		if user.LastLogin != nil && !user.LastLogin.Before(since) {
			stats.RecentLogins++
		}
	}
	return stats, nil
}

// Profiles

func (s *Store) EnsureProfile(_ context.Context, userID int64, at time.Time) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, apperr.NotFound(i18n.ErrUserNotFound)
	}
	profile, ok := s.profiles[userID]
	if !ok {
		profile = &models.Profile{UserID: userID, CreatedAt: at, UpdatedAt: at}
		s.profiles[userID] = profile
	}
	out := *profile
	return &out, nil
}

func (s *Store) UpdateProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.UserID]
	if !ok {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	existing.Phone = profile.Phone
	existing.Avatar = profile.Avatar
	existing.UpdatedAt = profile.UpdatedAt
	return nil
}

// Groups

func (s *Store) ListGroups(_ context.Context) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Group, 0, len(s.groups))
	for _, group := range s.groups {
		out = append(out, copyGroup(group))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetGroup(_ context.Context, id int64) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, apperr.NotFound(i18n.ErrGroupNotFound)
	}
	out := copyGroup(group)
	return &out, nil
}

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.groupNameTakenLocked(0, group.Name) {
		return apperr.Field("name", i18n.FieldGroupNameTaken)
	}
	s.nextGroupID++
	group.ID = s.nextGroupID
	stored := copyGroup(group)
	s.groups[group.ID] = &stored
	return nil
}

func (s *Store) UpdateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[group.ID]; !ok {
		return apperr.NotFound(i18n.ErrGroupNotFound)
	}
	if s.groupNameTakenLocked(group.ID, group.Name) {
		return apperr.Field("name", i18n.FieldGroupNameTaken)
	}
	stored := copyGroup(group)
	s.groups[group.ID] = &stored
	return nil
}

func (s *Store) DeleteGroup(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return apperr.NotFound(i18n.ErrGroupNotFound)
	}
	delete(s.groups, id)
	for userID, groupIDs := range s.membership {
		s.membership[userID] = slices.DeleteFunc(groupIDs, func(g int64) bool { return g == id })
	}
	return nil
}

// SetUserGroups replaces the user's group membership by group name.
func (s *Store) SetUserGroups(_ context.Context, userID int64, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	ids, err := s.resolveGroupsLocked(names)
	if err != nil {
		return err
	}
	s.membership[userID] = ids
	return nil
}

// resolveGroupsLocked maps names to distinct group ids. Unknown names are
// reported on the groups field.
func (s *Store) resolveGroupsLocked(names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	invalid := apperr.NewValidation()
	for _, name := range names {
		id, ok := s.groupIDLocked(name)
		if !ok {
			invalid.Add("groups", i18n.FieldUnknownGroup, name)
			continue
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if err := invalid.OrNil(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveAccount applies update under one lock. Every check runs before the
// first write, so a rejected update leaves the account as it was.
func (s *Store) SaveAccount(_ context.Context, update models.AccountUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := update.User
	existing, ok := s.users[user.ID]
	if !ok {
		return apperr.NotFound(i18n.ErrUserNotFound)
	}
	if err := s.checkUniqueLocked(user.ID, user.Username, user.Email); err != nil {
		return err
	}

	var ids []int64
	if update.Groups != nil {
		var err error
		if ids, err = s.resolveGroupsLocked(*update.Groups); err != nil {
			return err
		}
	}

	applyUser(existing, user)
	if update.Groups != nil {
		s.membership[user.ID] = ids
	}
	if update.Profile != nil {
		profile, ok := s.profiles[user.ID]
		if !ok {
			profile = &models.Profile{UserID: user.ID, CreatedAt: update.Profile.CreatedAt}
			s.profiles[user.ID] = profile
		}
		profile.Phone = update.Profile.Phone
		profile.Avatar = update.Profile.Avatar
		profile.UpdatedAt = update.Profile.UpdatedAt
	}
	return nil
}

func (s *Store) groupIDLocked(name string) (int64, bool) {
	for id, group := range s.groups {
		if group.Name == name {
			return id, true
		}
	}
	return 0, false
}

func (s *Store) groupNameTakenLocked(selfID int64, name string) bool {
	for id, group := range s.groups {
		if id != selfID && group.Name == name {
			return true
		}
	}
	return false
}

func copyGroup(group *models.Group) models.Group {
	out := *group
	out.Permissions = slices.Clone(group.Permissions)
	return out
}

// Todos

func (s *Store) CreateTodo(_ context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if todo.OwnerID != nil {
		if _, ok := s.users[*todo.OwnerID]; !ok {
			return apperr.NotFound(i18n.ErrUserNotFound)
		}
	}

	s.nextTodoID++
	todo.ID = s.nextTodoID
	stored := *todo
	if todo.OwnerID != nil {
		owner := *todo.OwnerID
		stored.OwnerID = &owner
	}
	stored.OwnerUsername = ""
	s.todos[todo.ID] = &stored
	return nil
}

func (s *Store) GetTodo(_ context.Context, scope policy.TodoScope, id int64) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, ok := s.todos[id]
	if !ok || !scope.Allows(*todo) {
		return nil, apperr.NotFound(i18n.ErrTodoNotFound)
	}
	return s.todoCopyLocked(todo), nil
}

func (s *Store) todoCopyLocked(todo *models.Todo) *models.Todo {
	out := *todo
	if todo.OwnerID != nil {
		owner := *todo.OwnerID
		out.OwnerID = &owner
		if user, ok := s.users[owner]; ok {
			out.OwnerUsername = user.Username
		}
	}
	return &out
}

func (s *Store) ListTodos(_ context.Context, filter policy.TodoFilter) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Todo, 0)
	for _, todo := range s.todos {
		candidate := s.todoCopyLocked(todo)
		if filter.Matches(*candidate) {
			out = append(out, *candidate)
		}
	}

	ordering := filter.Ordering
	if ordering.Field == "" {
		ordering = policy.DefaultOrdering
	}
	sort.Slice(out, func(i, j int) bool { return ordering.Less(out[i], out[j]) })
	return out, nil
}

func (s *Store) UpdateTodo(_ context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.todos[todo.ID]
	if !ok {
		return apperr.NotFound(i18n.ErrTodoNotFound)
	}
	existing.Title = todo.Title
	existing.Description = todo.Description
	existing.Completed = todo.Completed
	existing.UpdatedAt = todo.UpdatedAt
	return nil
}

func (s *Store) ToggleTodo(_ context.Context, id int64, at time.Time) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok {
		return nil, apperr.NotFound(i18n.ErrTodoNotFound)
	}
	todo.Completed = !todo.Completed
	todo.UpdatedAt = at
	return s.todoCopyLocked(todo), nil
}

func (s *Store) DeleteTodo(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return apperr.NotFound(i18n.ErrTodoNotFound)
	}
	delete(s.todos, id)
	return nil
}

func (s *Store) ListAnonymousTodosBefore(_ context.Context, cutoff time.Time) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Todo, 0)
	for _, todo := range s.todos {
		if todo.OwnerID == nil && todo.CreatedAt.Before(cutoff) {
			out = append(out, *todo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteAnonymousTodosBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, todo := range s.todos {
		if todo.OwnerID == nil && todo.CreatedAt.Before(cutoff) {
			delete(s.todos, id)
			deleted++
		}
	}
	return deleted, nil
}
