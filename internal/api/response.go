package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
)

type successEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type errorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func respond(c *gin.Context, status int, key i18n.Key, data any) {
	locale := i18n.FromContext(c.Request.Context())
	c.JSON(status, successEnvelope{
		Success: true,
		Message: i18n.T(locale, key),
		Data:    data,
	})
}

// writeError renders err as the failure envelope. Application errors keep
// their status; anything else is logged and reported as a 500.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	locale := i18n.FromContext(c.Request.Context())

	appErr, ok := apperr.As(err)
	if !ok {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		abortWith(c, http.StatusInternalServerError, errorEnvelope{
			Message: i18n.T(locale, i18n.ErrInternal),
			Errors:  map[string][]string{},
		})
		return
	}

	body := errorEnvelope{
		Message: i18n.Translate(locale, appErr.Message),
		Errors:  localizeFields(locale, appErr),
	}
	if appErr.Kind == apperr.KindValidation && len(body.Errors) > 0 {
		body.Message = joinFieldMessages(locale, appErr, body.Errors)
	}
	abortWith(c, appErr.Kind.Status(), body)
}

func abortWith(c *gin.Context, status int, body errorEnvelope) {
	c.AbortWithStatusJSON(status, body)
}

func localizeFields(locale i18n.Locale, appErr *apperr.Error) map[string][]string {
	out := make(map[string][]string, len(appErr.Fields))
	for _, field := range appErr.FieldNames() {
		for _, m := range appErr.Fields[field] {
			out[field] = append(out[field], i18n.Translate(locale, m))
		}
	}
	return out
}

// joinFieldMessages renders "Label: msg; Label: msg". Messages that belong to
// no field are appended without a label.
func joinFieldMessages(locale i18n.Locale, appErr *apperr.Error, fields map[string][]string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range appErr.FieldNames() {
		if field == i18n.NonFieldErrors {
			continue
		}
		label := i18n.FieldLabel(locale, field)
		for _, msg := range fields[field] {
			parts = append(parts, label+": "+msg)
		}
	}
	parts = append(parts, fields[i18n.NonFieldErrors]...)
	return strings.Join(parts, "; ")
}

// bindError reports an undecodable request body.
func bindError(c *gin.Context, logger *zap.Logger, err error) {
	logger.Debug("invalid payload", zap.String("path", c.Request.URL.Path), zap.Error(err))
	writeError(c, logger, &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: i18n.Msg(i18n.ErrInvalidPayload),
		Cause:   err,
	})
}
