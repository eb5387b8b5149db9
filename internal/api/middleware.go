package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/policy"
)

// localeMiddleware selects the response language from the first
// Accept-Language entry.
func localeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := i18n.Match(c.GetHeader("Accept-Language"))
		c.Request = c.Request.WithContext(i18n.WithLocale(c.Request.Context(), locale))
		c.Header("Content-Language", string(locale))
		c.Next()
	}
}

// actorMiddleware resolves the bearer token into the request actor. Requests
// without credentials proceed as anonymous; bad credentials are rejected.
func (h *Handler) actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := policy.Anonymous()

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header != "" {
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(c, h.logger, apperr.Unauthorized(i18n.ErrInvalidToken))
				return
			}

			user, err := h.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
			if err != nil {
				writeError(c, h.logger, err)
				return
			}
			actor = policy.ActorFor(*user)
		}

		c.Request = c.Request.WithContext(policy.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if policy.ActorFrom(c.Request.Context()).IsAnonymous() {
			writeError(c, h.logger, apperr.Unauthorized(i18n.ErrAuthenticationRequired))
			return
		}
		c.Next()
	}
}

func (h *Handler) requireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := policy.ActorFrom(c.Request.Context())
		switch {
		case actor.IsAnonymous():
			writeError(c, h.logger, apperr.Unauthorized(i18n.ErrAuthenticationRequired))
		case !policy.CanViewAll(actor):
			writeError(c, h.logger, apperr.Forbidden(i18n.ErrPermissionDenied))
		default:
			c.Next()
		}
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if actor := policy.ActorFrom(c.Request.Context()); !actor.IsAnonymous() {
			fields = append(fields, zap.Int64("user_id", actor.ID))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Recovery turns panics into the localized 500 envelope.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		writeError(c, logger, fmt.Errorf("panic: %v", recovered))
	})
}
