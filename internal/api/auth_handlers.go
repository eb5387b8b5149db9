package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wuwenbin0122/tasklist/internal/auth"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/metrics"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req auth.RegisterInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req)
	metrics.RecordAuth("register", err)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusCreated, i18n.MsgRegistered, newAuthResponse(result))
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req auth.LoginInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	metrics.RecordAuth("login", err)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, i18n.MsgLoggedIn, newAuthResponse(result))
}

func (h *Handler) handleLogout(c *gin.Context) {
	var req refreshRequest
	if !h.bindJSON(c, &req, true) {
		return
	}

	err := h.auth.Logout(c.Request.Context(), actorOf(c), req.Refresh)
	metrics.RecordAuth("logout", err)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, i18n.MsgLoggedOut, nil)
}

func (h *Handler) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if !h.bindJSON(c, &req, true) {
		return
	}

	token, err := h.auth.Refresh(c.Request.Context(), req.Refresh)
	metrics.RecordAuth("refresh", err)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, i18n.MsgTokenRefreshed, accessResponse{Access: token.Token, ExpiresAt: token.ExpiresAt})
}

func (h *Handler) handleProfile(c *gin.Context) {
	user, err := h.auth.Profile(c.Request.Context(), actorOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgProfileRetrieved, newUserResponse(*user))
}

func (h *Handler) handleProfileUpdate(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.ProfileUpdateInput
		if !h.bindJSON(c, &req, partial) {
			return
		}

		user, err := h.auth.UpdateProfile(c.Request.Context(), actorOf(c), req, partial)
		if err != nil {
			h.fail(c, err)
			return
		}
		respond(c, http.StatusOK, i18n.MsgProfileUpdated, newUserResponse(*user))
	}
}

func (h *Handler) handleChangePassword(c *gin.Context) {
	var req auth.ChangePasswordInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), actorOf(c), req); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgPasswordChanged, nil)
}
