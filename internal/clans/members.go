package clans

import (
	"net/http"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// targetRequest names a fellow member by id or, failing that, by name.
type targetRequest struct {
	PlayerID   uuid.UUID `json:"player_id"`
	PlayerName string    `json:"player_name"`
}

func bindTarget(c *gin.Context) (targetRequest, bool) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.PlayerID == uuid.Nil && req.PlayerName == "") {
		respondError(c, http.StatusBadRequest, "invalid_request", "player_id or player_name is required")
		return req, false
	}
	return req, true
}

// moderation resolves the caller and the target for a rank-gated action on a
// fellow member. The target must rank strictly below the caller.
func (h *Handler) moderation(c *gin.Context, min models.Role, action string) (actor, target *models.Member, clan *models.Clan, ok bool) {
	accountID := getAccountID(c)

	req, ok := bindTarget(c)
	if !ok {
		return nil, nil, nil, false
	}

	actor, clan, ok = h.membership(c, accountID)
	if !ok {
		return nil, nil, nil, false
	}
	if !requireRole(c, actor, min, action+" members") {
		return nil, nil, nil, false
	}

	target = h.target(c, clan.ID, req)
	if target == nil {
		return nil, nil, nil, false
	}
	if target.PlayerID == accountID {
		respondError(c, http.StatusBadRequest, "invalid_request", "You cannot "+action+" yourself")
		return nil, nil, nil, false
	}
	if target.Role.Rank() >= actor.Role.Rank() {
		respondError(c, http.StatusForbidden, "no_permission", "You can only "+action+" members below your rank")
		return nil, nil, nil, false
	}
	return actor, target, clan, true
}

func (h *Handler) KickMember(c *gin.Context) {
	actor, target, clan, ok := h.moderation(c, models.RoleCommodore, "kick")
	if !ok {
		return
	}

	if _, err := h.dir.Members.Remove(c.Request.Context(), target.PlayerID); err != nil {
		h.internalError(c, "kick member", err)
		return
	}
	h.news(c, clan.ID, "%s kicked %s", actor.PlayerName, target.PlayerName)

	c.JSON(http.StatusOK, gin.H{"message": "Member kicked"})
}

func (h *Handler) PromoteMember(c *gin.Context) {
	actor, target, clan, ok := h.moderation(c, models.RoleCommodore, "promote")
	if !ok {
		return
	}

	next := target.Role.Next()
	// The top role only changes hands through a transfer.
	if next == models.TopRole {
		respondError(c, http.StatusForbidden, "no_permission", "Use transfer to hand over the clan")
		return
	}
	h.changeRole(c, clan, actor, target, next, "promoted")
}

func (h *Handler) DemoteMember(c *gin.Context) {
	actor, target, clan, ok := h.moderation(c, models.RoleCommodore, "demote")
	if !ok {
		return
	}

	prev := target.Role.Previous()
	if prev == target.Role {
		respondError(c, http.StatusConflict, "no_permission", "That member already has the lowest rank")
		return
	}
	h.changeRole(c, clan, actor, target, prev, "demoted")
}

func (h *Handler) changeRole(c *gin.Context, clan *models.Clan, actor, target *models.Member, role models.Role, verb string) {
	updated, err := h.dir.Members.UpdateRole(c.Request.Context(), target.PlayerID, role)
	if err != nil {
		h.internalError(c, "change role", err)
		return
	}
	if !updated {
		respondError(c, http.StatusNotFound, "target_not_found", "That player is not in your clan")
		return
	}
	h.news(c, clan.ID, "%s %s %s to %s", actor.PlayerName, verb, target.PlayerName, role)

	c.JSON(http.StatusOK, gin.H{"player_id": target.PlayerID, "role": role})
}

func (h *Handler) TransferOwnership(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := getAccountID(c)

	req, ok := bindTarget(c)
	if !ok {
		return
	}

	member, clan, ok := h.membership(c, accountID)
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleAdmiral, "transfer ownership") {
		return
	}
	target := h.target(c, clan.ID, req)
	if target == nil {
		return
	}
	if target.PlayerID == accountID {
		respondError(c, http.StatusBadRequest, "invalid_request", "You are already the owner")
		return
	}

	transferred, err := h.dir.Members.TransferOwnership(ctx, clan.ID, target.PlayerID)
	if err != nil {
		h.internalError(c, "transfer ownership", err)
		return
	}
	if !transferred {
		respondError(c, http.StatusNotFound, "target_not_found", "That player is not in your clan")
		return
	}
	h.news(c, clan.ID, "%s handed the clan to %s", member.PlayerName, target.PlayerName)

	updated, err := h.dir.Clans.Get(ctx, clan.ID)
	if err != nil || updated == nil {
		h.internalError(c, "fetch clan", err)
		return
	}
	h.respondClan(c, http.StatusOK, updated)
}
