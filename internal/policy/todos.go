package policy

import (
	"strings"

	"github.com/wuwenbin0122/tasklist/internal/models"
)

// ScopeKind selects which owners a todo query may return.
type ScopeKind int

const (
	ScopeAnonymous ScopeKind = iota + 1
	ScopeOwner
	ScopeAll
)

// TodoScope is the visibility predicate derived from an actor.
type TodoScope struct {
	Kind    ScopeKind
	OwnerID int64
}

// VisibleTodos returns the visibility predicate for actor.
func VisibleTodos(actor Actor) TodoScope {
	switch {
	case actor.IsAnonymous():
		return TodoScope{Kind: ScopeAnonymous}
	case CanViewAll(actor):
		return TodoScope{Kind: ScopeAll}
	default:
		return TodoScope{Kind: ScopeOwner, OwnerID: actor.ID}
	}
}

// Allows reports whether todo falls inside the scope.
func (s TodoScope) Allows(todo models.Todo) bool {
	switch s.Kind {
	case ScopeAnonymous:
		return todo.OwnerID == nil
	case ScopeOwner:
		return todo.OwnerID != nil && *todo.OwnerID == s.OwnerID
	case ScopeAll:
		return true
	default:
		return false
	}
}

// Status narrows a todo query by completion state.
type Status string

const (
	StatusAll       Status = "all"
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

// ParseStatus maps a query value to a Status, defaulting to StatusAll.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusCompleted:
		return StatusCompleted
	case StatusPending:
		return StatusPending
	default:
		return StatusAll
	}
}

// Allows reports whether todo matches the status.
func (s Status) Allows(todo models.Todo) bool {
	switch s {
	case StatusCompleted:
		return todo.Completed
	case StatusPending:
		return !todo.Completed
	default:
		return true
	}
}

// OrderField is a sortable todo column.
type OrderField string

const (
	OrderCreatedAt OrderField = "created_at"
	OrderUpdatedAt OrderField = "updated_at"
	OrderTitle     OrderField = "title"
)

// Ordering is a whitelisted sort over todos.
type Ordering struct {
	Field OrderField
	Desc  bool
}

// DefaultOrdering is -created_at.
var DefaultOrdering = Ordering{Field: OrderCreatedAt, Desc: true}

// ParseOrdering accepts "field" or "-field" for the whitelisted fields and
// falls back to DefaultOrdering for anything else.
func ParseOrdering(raw string) Ordering {
	raw = strings.TrimSpace(raw)
	desc := strings.HasPrefix(raw, "-")
	field := OrderField(strings.TrimPrefix(raw, "-"))

	switch field {
	case OrderCreatedAt, OrderUpdatedAt, OrderTitle:
		return Ordering{Field: field, Desc: desc}
	default:
		return DefaultOrdering
	}
}

func (o Ordering) String() string {
	if o.Desc {
		return "-" + string(o.Field)
	}
	return string(o.Field)
}

// TodoFilter is a complete todo query: the visibility scope first, then the
// optional narrowing parameters.
type TodoFilter struct {
	Scope    TodoScope
	Status   Status
	Search   string
	Ordering Ordering
}

// FilterFor builds the default filter for actor.
func FilterFor(actor Actor) TodoFilter {
	return TodoFilter{
		Scope:    VisibleTodos(actor),
		Status:   StatusAll,
		Ordering: DefaultOrdering,
	}
}

// Matches reports whether todo passes scope, status and search. Search is a
// case-insensitive substring match over title, description and owner username.
func (f TodoFilter) Matches(todo models.Todo) bool {
	if !f.Scope.Allows(todo) {
		return false
	}
	if f.Status != "" && !f.Status.Allows(todo) {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(todo.Title), search) ||
		strings.Contains(strings.ToLower(todo.Description), search) ||
		strings.Contains(strings.ToLower(todo.OwnerUsername), search)
}

// Less orders two todos per the ordering, breaking ties by id so results are
// stable.
func (o Ordering) Less(a, b models.Todo) bool {
	var cmp int
	switch o.Field {
	case OrderTitle:
		cmp = strings.Compare(a.Title, b.Title)
	case OrderUpdatedAt:
		cmp = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		cmp = a.CreatedAt.Compare(b.CreatedAt)
	}
	if cmp == 0 {
		cmp = compareInt64(a.ID, b.ID)
	}
	if o.Desc {
		return cmp > 0
	}
	return cmp < 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
