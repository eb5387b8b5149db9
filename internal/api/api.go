// Package api exposes the services over HTTP. Every response uses the
// localized success/failure envelope.
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/admin"
	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/auth"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/policy"
	"github.com/wuwenbin0122/tasklist/internal/todo"
)

type Handler struct {
	auth   *auth.Service
	todos  *todo.Service
	admin  *admin.Service
	logger *zap.Logger
}

func NewHandler(authService *auth.Service, todoService *todo.Service, adminService *admin.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		auth:   authService,
		todos:  todoService,
		admin:  adminService,
		logger: logger.Named("api"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.handleHealth)

	apiGroup := router.Group("/api", localeMiddleware(), h.actorMiddleware())

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", h.handleRegister)
	authGroup.POST("/login", h.handleLogin)
	authGroup.POST("/refresh", h.handleRefresh)

	sessionGroup := authGroup.Group("", h.requireAuth())
	sessionGroup.POST("/logout", h.handleLogout)
	sessionGroup.GET("/profile", h.handleProfile)
	sessionGroup.PUT("/profile", h.handleProfileUpdate(false))
	sessionGroup.PATCH("/profile", h.handleProfileUpdate(true))
	sessionGroup.POST("/change-password", h.handleChangePassword)

	adminGroup := apiGroup.Group("/admin", h.requireStaff())
	adminGroup.GET("/users", h.handleAdminUsers)
	adminGroup.GET("/users/:id", h.handleAdminUser)
	adminGroup.PUT("/users/:id", h.handleAdminUserUpdate(false))
	adminGroup.PATCH("/users/:id", h.handleAdminUserUpdate(true))
	adminGroup.DELETE("/users/:id", h.handleAdminUserDelete)
	adminGroup.POST("/users/:id/set-active", h.handleSetFlag(policy.FlagActive, true))
	adminGroup.POST("/users/:id/set-staff", h.handleSetFlag(policy.FlagStaff, false))
	adminGroup.POST("/users/:id/set-superuser", h.handleSetFlag(policy.FlagSuperuser, false))
	adminGroup.GET("/groups", h.handleGroups)
	adminGroup.POST("/groups", h.handleGroupCreate)
	adminGroup.GET("/groups/:id", h.handleGroup)
	adminGroup.PUT("/groups/:id", h.handleGroupUpdate(false))
	adminGroup.PATCH("/groups/:id", h.handleGroupUpdate(true))
	adminGroup.DELETE("/groups/:id", h.handleGroupDelete)
	adminGroup.GET("/permissions", h.handlePermissions)
	adminGroup.GET("/dashboard/stats", h.handleDashboardStats)
	adminGroup.GET("/todos", h.handleAdminTodos)

	todoGroup := apiGroup.Group("/todos")
	todoGroup.GET("", h.handleTodos)
	todoGroup.POST("", h.handleTodoCreate)
	todoGroup.GET("/completed", h.handleTodosCompleted)
	todoGroup.GET("/pending", h.handleTodosPending)
	todoGroup.GET("/:id", h.handleTodo)
	todoGroup.PUT("/:id", h.handleTodoUpdate(false))
	todoGroup.PATCH("/:id", h.handleTodoUpdate(true))
	todoGroup.DELETE("/:id", h.handleTodoDelete)
	todoGroup.PATCH("/:id/toggle_completed", h.handleTodoToggle)
}

func actorOf(c *gin.Context) policy.Actor {
	return policy.ActorFrom(c.Request.Context())
}

// pathID parses the :id parameter. Non-numeric ids cannot name a record and
// are reported as NotFound.
func pathID(c *gin.Context, notFound i18n.Key) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound(notFound)
	}
	return id, nil
}

// bindJSON decodes the request body into dst. An empty body decodes to the
// zero value when allowEmpty is set.
func (h *Handler) bindJSON(c *gin.Context, dst any, allowEmpty bool) bool {
	if allowEmpty && (c.Request.Body == nil || c.Request.ContentLength == 0) {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		bindError(c, h.logger, err)
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error) {
	writeError(c, h.logger, err)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
