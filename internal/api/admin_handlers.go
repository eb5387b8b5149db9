package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wuwenbin0122/tasklist/internal/admin"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/policy"
)

// flagMessages holds the success message per flag for the enabled and
// disabled outcome.
var flagMessages = map[policy.UserFlag][2]i18n.Key{
	policy.FlagActive:    {i18n.MsgUserActivated, i18n.MsgUserDeactivated},
	policy.FlagStaff:     {i18n.MsgStaffEnabled, i18n.MsgStaffDisabled},
	policy.FlagSuperuser: {i18n.MsgSuperuserEnabled, i18n.MsgSuperuserDisabled},
}

func (h *Handler) handleAdminUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context(), actorOf(c), c.Query("search"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgUsersRetrieved, newAdminUserList(users))
}

func (h *Handler) handleAdminUser(c *gin.Context) {
	id, err := pathID(c, i18n.ErrUserNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.admin.GetUser(c.Request.Context(), actorOf(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgUserRetrieved, newAdminUserResponse(*user))
}

func (h *Handler) handleAdminUserUpdate(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, i18n.ErrUserNotFound)
		if err != nil {
			h.fail(c, err)
			return
		}

		var req admin.UserUpdateInput
		if !h.bindJSON(c, &req, partial) {
			return
		}

		user, err := h.admin.UpdateUser(c.Request.Context(), actorOf(c), id, req, partial)
		if err != nil {
			h.fail(c, err)
			return
		}
		respond(c, http.StatusOK, i18n.MsgUserUpdated, newAdminUserResponse(*user))
	}
}

func (h *Handler) handleAdminUserDelete(c *gin.Context) {
	id, err := pathID(c, i18n.ErrUserNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), actorOf(c), id); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgUserDeleted, nil)
}

// handleSetFlag reads {"<flag>": bool} and falls back to fallback when the
// body or the key is missing.
func (h *Handler) handleSetFlag(flag policy.UserFlag, fallback bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, i18n.ErrUserNotFound)
		if err != nil {
			h.fail(c, err)
			return
		}

		body := map[string]*bool{}
		if !h.bindJSON(c, &body, true) {
			return
		}
		value := fallback
		if v := body[string(flag)]; v != nil {
			value = *v
		}

		user, err := h.admin.SetFlag(c.Request.Context(), actorOf(c), id, flag, value)
		if err != nil {
			h.fail(c, err)
			return
		}

		messages := flagMessages[flag]
		key := messages[1]
		if value {
			key = messages[0]
		}
		respond(c, http.StatusOK, key, newAdminUserResponse(*user))
	}
}

func (h *Handler) handleGroups(c *gin.Context) {
	groups, err := h.admin.ListGroups(c.Request.Context(), actorOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgGroupsRetrieved, newGroupList(groups))
}

func (h *Handler) handleGroup(c *gin.Context) {
	id, err := pathID(c, i18n.ErrGroupNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	group, err := h.admin.GetGroup(c.Request.Context(), actorOf(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgGroupRetrieved, newGroupResponse(*group))
}

func (h *Handler) handleGroupCreate(c *gin.Context) {
	var req admin.GroupInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	group, err := h.admin.CreateGroup(c.Request.Context(), actorOf(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, i18n.MsgGroupCreated, newGroupResponse(*group))
}

func (h *Handler) handleGroupUpdate(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, i18n.ErrGroupNotFound)
		if err != nil {
			h.fail(c, err)
			return
		}

		var req admin.GroupInput
		if !h.bindJSON(c, &req, partial) {
			return
		}

		group, err := h.admin.UpdateGroup(c.Request.Context(), actorOf(c), id, req, partial)
		if err != nil {
			h.fail(c, err)
			return
		}
		respond(c, http.StatusOK, i18n.MsgGroupUpdated, newGroupResponse(*group))
	}
}

func (h *Handler) handleGroupDelete(c *gin.Context) {
	id, err := pathID(c, i18n.ErrGroupNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.admin.DeleteGroup(c.Request.Context(), actorOf(c), id); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgGroupDeleted, nil)
}

func (h *Handler) handlePermissions(c *gin.Context) {
	perms, err := h.admin.Permissions(actorOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgPermissionsRetrieved, perms)
}

func (h *Handler) handleDashboardStats(c *gin.Context) {
	stats, err := h.admin.DashboardStats(c.Request.Context(), actorOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.MsgStatsRetrieved, newStatsResponse(stats))
}
