package api

import (
	"time"

	"github.com/wuwenbin0122/tasklist/internal/auth"
	"github.com/wuwenbin0122/tasklist/internal/models"
)

type profileResponse struct {
	Phone     string    `json:"phone"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type userResponse struct {
	ID          int64            `json:"id"`
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	IsActive    bool             `json:"is_active"`
	IsStaff     bool             `json:"is_staff"`
	IsSuperuser bool             `json:"is_superuser"`
	DateJoined  time.Time        `json:"date_joined"`
	Profile     *profileResponse `json:"profile"`
}

// adminUserResponse adds the fields only staff see.
type adminUserResponse struct {
	userResponse
	LastLogin *time.Time `json:"last_login"`
	Groups    []string   `json:"groups"`
}

type authResponse struct {
	User    userResponse `json:"user"`
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
}

type accessResponse struct {
	Access    string    `json:"access"`
	ExpiresAt time.Time `json:"expires_at"`
}

type todoResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     *int64    `json:"owner_id"`
	CreatedBy   *string   `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type adminTodoResponse struct {
	todoResponse
	CreatorUsername *string `json:"creator_username"`
	CreatorID       *int64  `json:"creator_id"`
}

type groupResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type statsResponse struct {
	TotalUsers          int64 `json:"total_users"`
	ActiveUsers         int64 `json:"active_users"`
	StaffUsers          int64 `json:"staff_users"`
	Superusers          int64 `json:"superusers"`
	RecentRegistrations int64 `json:"recent_registrations"`
	RecentLogins        int64 `json:"recent_logins"`
}

func newUserResponse(user models.User) userResponse {
	resp := userResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsActive:    user.IsActive,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		DateJoined:  user.DateJoined,
	}
	if user.Profile != nil {
		resp.Profile = &profileResponse{
			Phone:     user.Profile.Phone,
			Avatar:    user.Profile.Avatar,
			CreatedAt: user.Profile.CreatedAt,
			UpdatedAt: user.Profile.UpdatedAt,
		}
	}
	return resp
}

func newAdminUserResponse(user models.User) adminUserResponse {
	groups := user.Groups
	if groups == nil {
		groups = []string{}
	}
	return adminUserResponse{
		userResponse: newUserResponse(user),
		LastLogin:    user.LastLogin,
		Groups:       groups,
	}
}

func newAdminUserList(users []models.User) []adminUserResponse {
	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newAdminUserResponse(u))
	}
	return out
}

func newAuthResponse(result *auth.AuthResult) authResponse {
	return authResponse{
		User:    newUserResponse(result.User),
		Access:  result.Tokens.Access,
		Refresh: result.Tokens.Refresh,
	}
}

func newTodoResponse(todo models.Todo) todoResponse {
	resp := todoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		OwnerID:     todo.OwnerID,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
	if !todo.IsAnonymous() && todo.OwnerUsername != "" {
		name := todo.OwnerUsername
		resp.CreatedBy = &name
	}
	return resp
}

func newTodoList(todos []models.Todo) []todoResponse {
	out := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, newTodoResponse(t))
	}
	return out
}

func newAdminTodoList(todos []models.Todo) []adminTodoResponse {
	out := make([]adminTodoResponse, 0, len(todos))
	for _, t := range todos {
		base := newTodoResponse(t)
		out = append(out, adminTodoResponse{
			todoResponse:    base,
			CreatorUsername: base.CreatedBy,
			CreatorID:       t.OwnerID,
		})
	}
	return out
}

func newGroupResponse(group models.Group) groupResponse {
	perms := group.Permissions
	if perms == nil {
		perms = []string{}
	}
	return groupResponse{ID: group.ID, Name: group.Name, Permissions: perms}
}

func newGroupList(groups []models.Group) []groupResponse {
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, newGroupResponse(g))
	}
	return out
}

func newStatsResponse(stats models.UserStats) statsResponse {
	return statsResponse{
		TotalUsers:          stats.TotalUsers,
		ActiveUsers:         stats.ActiveUsers,
		StaffUsers:          stats.StaffUsers,
		Superusers:          stats.Superusers,
		RecentRegistrations: stats.RecentRegistrations,
		RecentLogins:        stats.RecentLogins,
	}
}
