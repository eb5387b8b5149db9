package models

import "time"

// User represents an application account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	DateJoined   time.Time
	LastLogin    *time.Time

	Profile *Profile
	Groups  []string
}

// Sanitize returns a copy of the user without sensitive fields populated.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}

// Profile extends a user with contact details. It is created lazily on first access.
type Profile struct {
	UserID    int64
	Phone     string
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountUpdate is a combined edit of a user row, its group memberships and
// its profile. Stores apply it all or nothing. Nil Groups or Profile leave
// that part untouched.
type AccountUpdate struct {
	User    *User
	Groups  *[]string
	Profile *Profile
}

// Group is a named bundle of permission codenames.
type Group struct {
	ID          int64
	Name        string
	Permissions []string
}

// UserStats summarises the user table for the admin dashboard.
type UserStats struct {
	TotalUsers          int64
	ActiveUsers         int64
	StaffUsers          int64
	Superusers          int64
	RecentRegistrations int64
	RecentLogins        int64
}
