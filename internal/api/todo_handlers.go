package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/models"
	"github.com/wuwenbin0122/tasklist/internal/policy"
	"github.com/wuwenbin0122/tasklist/internal/todo"
)

type todoLister func(ctx context.Context, actor policy.Actor) ([]models.Todo, error)

func (h *Handler) listTodos(c *gin.Context, list todoLister) {
	todos, err := list(c.Request.Context(), actorOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgTodosRetrieved, newTodoList(todos))
}

func (h *Handler) handleTodos(c *gin.Context) {
	h.listTodos(c, h.todos.List)
}

func (h *Handler) handleTodosCompleted(c *gin.Context) {
	h.listTodos(c, h.todos.Completed)
}

func (h *Handler) handleTodosPending(c *gin.Context) {
	h.listTodos(c, h.todos.Pending)
}

func (h *Handler) handleTodoCreate(c *gin.Context) {
	var req todo.CreateInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	created, err := h.todos.Create(c.Request.Context(), actorOf(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, i18n.MsgTodoCreated, newTodoResponse(*created))
}

func (h *Handler) handleTodo(c *gin.Context) {
	id, err := pathID(c, i18n.ErrTodoNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	found, err := h.todos.Get(c.Request.Context(), actorOf(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgTodoRetrieved, newTodoResponse(*found))
}

func (h *Handler) handleTodoUpdate(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, i18n.ErrTodoNotFound)
		if err != nil {
			h.fail(c, err)
			return
		}

		var req todo.UpdateInput
		if !h.bindJSON(c, &req, partial) {
			return
		}

		updated, err := h.todos.Update(c.Request.Context(), actorOf(c), id, req, partial)
		if err != nil {
			h.fail(c, err)
			return
		}
		respond(c, http.StatusOK, i18n.MsgTodoUpdated, newTodoResponse(*updated))
	}
}

func (h *Handler) handleTodoToggle(c *gin.Context) {
	id, err := pathID(c, i18n.ErrTodoNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	toggled, err := h.todos.Toggle(c.Request.Context(), actorOf(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgTodoToggled, newTodoResponse(*toggled))
}

func (h *Handler) handleTodoDelete(c *gin.Context) {
	id, err := pathID(c, i18n.ErrTodoNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.todos.Delete(c.Request.Context(), actorOf(c), id); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgTodoDeleted, nil)
}

func (h *Handler) handleAdminTodos(c *gin.Context) {
	todos, err := h.todos.AdminList(c.Request.Context(), actorOf(c), todo.AdminListOptions{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Ordering: c.Query("ordering"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgTodosRetrieved, newAdminTodoList(todos))
}
