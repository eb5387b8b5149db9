package models

import "time"

// Todo is a task item. A nil OwnerID marks an anonymous todo.
type Todo struct {
	ID          int64
	Title       string
	Description string
	Completed   bool
	OwnerID     *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// OwnerUsername is resolved on reads and never persisted.
	OwnerUsername string
}

// IsAnonymous reports whether the todo has no owner.
func (t Todo) IsAnonymous() bool {
	return t.OwnerID == nil
}
