package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
)

const todoColumns = `t.id, t.title, t.description, t.completed, t.owner_id, t.created_at, t.updated_at,
	COALESCE(u.username, '')`

const todoFrom = ` FROM todos t LEFT JOIN users u ON u.id = t.owner_id`

var orderColumns = map[policy.OrderField]string{
	policy.OrderCreatedAt: "t.created_at",
	policy.OrderUpdatedAt: "t.updated_at",
	policy.OrderTitle:     "t.title",
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var todo models.Todo
	if err := row.Scan(
		&todo.ID, &todo.Title, &todo.Description, &todo.Completed, &todo.OwnerID,
		&todo.CreatedAt, &todo.UpdatedAt, &todo.OwnerUsername,
	); err != nil {
		return nil, err
	}
	return &todo, nil
}

// whereBuilder accumulates AND-ed predicates with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		clause = strings.Replace(clause, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *whereBuilder) scope(scope policy.TodoScope) {
	switch scope.Kind {
	case policy.ScopeAnonymous:
		w.add("t.owner_id IS NULL")
	case policy.ScopeOwner:
		w.add("t.owner_id = ?", scope.OwnerID)
	case policy.ScopeAll:
	default:
		w.add("FALSE")
	}
}

func (p *Postgres) CreateTodo(ctx context.Context, todo *models.Todo) error {
	const query = `INSERT INTO todos (title, description, completed, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := p.Pool.QueryRow(ctx, query,
		todo.Title, todo.Description, todo.Completed, todo.OwnerID, todo.CreatedAt, todo.UpdatedAt,
	).Scan(&todo.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.NotFound(i18n.ErrUserNotFound)
		}
		return translate("insert todo", err, i18n.ErrTodoNotFound)
	}
	return nil
}

// GetTodo loads a todo through scope. Rows outside the scope are reported
// exactly like missing rows.
func (p *Postgres) GetTodo(ctx context.Context, scope policy.TodoScope, id int64) (*models.Todo, error) {
	var where whereBuilder
	where.add("t.id = ?", id)
	where.scope(scope)

	query := `SELECT ` + todoColumns + todoFrom + where.String()
	todo, err := scanTodo(p.Pool.QueryRow(ctx, query, where.args...))
	if err != nil {
		return nil, translate("get todo", err, i18n.ErrTodoNotFound)
	}
	return todo, nil
}

func (p *Postgres) ListTodos(ctx context.Context, filter policy.TodoFilter) ([]models.Todo, error) {
	var where whereBuilder
	where.scope(filter.Scope)

	switch filter.Status {
	case policy.StatusCompleted:
		where.add("t.completed = TRUE")
	case policy.StatusPending:
		where.add("t.completed = FALSE")
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		where.add("(t.title ILIKE ? OR t.description ILIKE ? OR COALESCE(u.username, '') ILIKE ?)",
			likePattern(search), likePattern(search), likePattern(search))
	}

	ordering := filter.Ordering
	column, ok := orderColumns[ordering.Field]
	if !ok {
		ordering = policy.DefaultOrdering
		column = orderColumns[ordering.Field]
	}
	direction := "ASC"
	if ordering.Desc {
		direction = "DESC"
	}

	query := `SELECT ` + todoColumns + todoFrom + where.String() +
		` ORDER BY ` + column + ` ` + direction + `, t.id ` + direction

	return p.queryTodos(ctx, "list todos", query, where.args...)
}

func (p *Postgres) queryTodos(ctx context.Context, op, query string, args ...any) ([]models.Todo, error) {
	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	todos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Todo, error) {
		todo, err := scanTodo(row)
		if err != nil {
			return models.Todo{}, err
		}
		return *todo, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	return todos, nil
}

func (p *Postgres) UpdateTodo(ctx context.Context, todo *models.Todo) error {
	const query = `UPDATE todos SET title = $2, description = $3, completed = $4, updated_at = $5 WHERE id = $1`
	tag, err := p.Pool.Exec(ctx, query, todo.ID, todo.Title, todo.Description, todo.Completed, todo.UpdatedAt)
	if err != nil {
		return translate("update todo", err, i18n.ErrTodoNotFound)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(i18n.ErrTodoNotFound)
	}
	return nil
}

// ToggleTodo flips completed in a single statement so concurrent toggles
// never lose an update.
func (p *Postgres) ToggleTodo(ctx context.Context, id int64, at time.Time) (*models.Todo, error) {
	const query = `WITH t AS (
			UPDATE todos SET completed = NOT completed, updated_at = $2 WHERE id = $1
			RETURNING id, title, description, completed, owner_id, created_at, updated_at
		)
		SELECT ` + todoColumns + ` FROM t LEFT JOIN users u ON u.id = t.owner_id`

	todo, err := scanTodo(p.Pool.QueryRow(ctx, query, id, at))
	if err != nil {
		return nil, translate("toggle todo", err, i18n.ErrTodoNotFound)
	}
	return todo, nil
}

func (p *Postgres) DeleteTodo(ctx context.Context, id int64) error {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return translate("delete todo", err, i18n.ErrTodoNotFound)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(i18n.ErrTodoNotFound)
	}
	return nil
}

func (p *Postgres) ListAnonymousTodosBefore(ctx context.Context, cutoff time.Time) ([]models.Todo, error) {
	query := `SELECT ` + todoColumns + todoFrom +
		` WHERE t.owner_id IS NULL AND t.created_at < $1 ORDER BY t.created_at ASC, t.id ASC`
	return p.queryTodos(ctx, "list anonymous todos", query, cutoff)
}

func (p *Postgres) DeleteAnonymousTodosBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM todos WHERE owner_id IS NULL AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete anonymous todos: %w", err)
	}
	return tag.RowsAffected(), nil
}
