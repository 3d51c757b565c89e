package clans

import (
	"net/http"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Administrative endpoints (service token) ---
//
// These act on any clan regardless of the caller's membership. The clan is
// addressed by id or by name.

// adminClan resolves the :clanId path parameter, accepting a uuid or a clan
// name.
func (h *Handler) adminClan(c *gin.Context) (*models.Clan, bool) {
	ctx := c.Request.Context()
	ident := c.Param("clanId")

	var (
		clan *models.Clan
		err  error
	)
	if id, parseErr := uuid.Parse(ident); parseErr == nil {
		clan, err = h.dir.Clans.Get(ctx, id)
	} else {
		clan, err = h.dir.Clans.GetByName(ctx, ident)
	}
	if err != nil {
		h.internalError(c, "fetch clan", err)
		return nil, false
	}
	if clan == nil {
		respondError(c, http.StatusNotFound, "clan_not_found", "Clan not found")
		return nil, false
	}
	return clan, true
}

// adminTarget resolves the clan and the member named in the request body.
func (h *Handler) adminTarget(c *gin.Context) (*models.Clan, *models.Member, bool) {
	req, ok := bindTarget(c)
	if !ok {
		return nil, nil, false
	}
	clan, ok := h.adminClan(c)
	if !ok {
		return nil, nil, false
	}
	target := h.target(c, clan.ID, req)
	if target == nil {
		return nil, nil, false
	}
	return clan, target, true
}

func (h *Handler) AdminKick(c *gin.Context) {
	clan, target, ok := h.adminTarget(c)
	if !ok {
		return
	}
	if target.Role == models.TopRole {
		respondError(c, http.StatusConflict, "no_permission", "Transfer ownership or disband the clan instead")
		return
	}

	if _, err := h.dir.Members.Remove(c.Request.Context(), target.PlayerID); err != nil {
		h.internalError(c, "kick member", err)
		return
	}
	h.log.Info("member removed by administrator",
		zap.String("clan_id", clan.ID.String()),
		zap.String("player_id", target.PlayerID.String()),
	)
	c.JSON(http.StatusOK, gin.H{"message": "Member kicked"})
}

func (h *Handler) AdminDisband(c *gin.Context) {
	clan, ok := h.adminClan(c)
	if !ok {
		return
	}
	h.log.Info("clan disbanded by administrator", zap.String("clan_id", clan.ID.String()))
	h.disband(c, clan)
}

func (h *Handler) AdminClearMOTD(c *gin.Context) {
	clan, ok := h.adminClan(c)
	if !ok {
		return
	}

	updated, err := h.dir.Clans.Modify(c.Request.Context(), clan.ID, func(cl *models.Clan) {
		cl.MOTD = ""
	})
	if err != nil {
		h.internalError(c, "clear motd", err)
		return
	}
	if !updated {
		respondError(c, http.StatusNotFound, "clan_not_found", "Clan not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message of the day cleared"})
}

// AdminPromote raises the member one rank. Promotion into the top role
// hands the clan over to the member.
func (h *Handler) AdminPromote(c *gin.Context) {
	clan, target, ok := h.adminTarget(c)
	if !ok {
		return
	}
	if target.Role == models.TopRole {
		respondError(c, http.StatusConflict, "no_permission", "That member already has the highest rank")
		return
	}

	next := target.Role.Next()
	if next == models.TopRole {
		transferred, err := h.dir.Members.TransferOwnership(c.Request.Context(), clan.ID, target.PlayerID)
		if err != nil {
			h.internalError(c, "transfer ownership", err)
			return
		}
		if !transferred {
			respondError(c, http.StatusNotFound, "target_not_found", "That player is not in the clan")
			return
		}
		c.JSON(http.StatusOK, gin.H{"player_id": target.PlayerID, "role": next})
		return
	}
	h.adminSetRole(c, target, next)
}

// AdminDemote lowers the member one rank. The owner keeps the top role until
// ownership is transferred.
func (h *Handler) AdminDemote(c *gin.Context) {
	_, target, ok := h.adminTarget(c)
	if !ok {
		return
	}
	if target.Role == models.TopRole {
		respondError(c, http.StatusConflict, "no_permission", "Transfer ownership before demoting the owner")
		return
	}

	prev := target.Role.Previous()
	if prev == target.Role {
		respondError(c, http.StatusConflict, "no_permission", "That member already has the lowest rank")
		return
	}
	h.adminSetRole(c, target, prev)
}

func (h *Handler) adminSetRole(c *gin.Context, target *models.Member, role models.Role) {
	updated, err := h.dir.Members.UpdateRole(c.Request.Context(), target.PlayerID, role)
	if err != nil {
		h.internalError(c, "change role", err)
		return
	}
	if !updated {
		respondError(c, http.StatusNotFound, "target_not_found", "That player is not in the clan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"player_id": target.PlayerID, "role": role})
}

// AdminRename renames the clan without charging the treasury.
func (h *Handler) AdminRename(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	clan, ok := h.adminClan(c)
	if !ok {
		return
	}

	limits := h.settings.Restrictions
	colorless, ok := ValidateName(req.Name, limits.MinNameLength, limits.MaxNameLength)
	if !ok {
		respondError(c, http.StatusBadRequest, "name_invalid", "Clan name is invalid")
		return
	}
	existing, err := h.dir.Clans.GetByName(ctx, colorless)
	if err != nil {
		h.internalError(c, "rename clan", err)
		return
	}
	if existing != nil && existing.ID != clan.ID {
		respondError(c, http.StatusConflict, "name_taken", "A clan with that name already exists")
		return
	}

	updated, err := h.dir.Clans.Modify(ctx, clan.ID, func(cl *models.Clan) {
		cl.Name = req.Name
		cl.ColorlessName = colorless
	})
	if err != nil {
		h.internalError(c, "rename clan", err)
		return
	}
	if !updated {
		respondError(c, http.StatusNotFound, "clan_not_found", "Clan not found")
		return
	}

	renamed, err := h.dir.Clans.Get(ctx, clan.ID)
	if err != nil || renamed == nil {
		h.internalError(c, "fetch clan", err)
		return
	}
	h.respondClan(c, http.StatusOK, renamed)
}

func (h *Handler) AdminRemoveAdvertisement(c *gin.Context) {
	clan, ok := h.adminClan(c)
	if !ok {
		return
	}

	removed, err := h.dir.Adverts.Remove(c.Request.Context(), clan.ID)
	if err != nil {
		h.internalError(c, "remove advertisement", err)
		return
	}
	if !removed {
		respondError(c, http.StatusNotFound, "no_advertisement", "The clan has no active advertisement")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Advertisement removed"})
}

// AdminListInvites lists the invites the clan has sent.
func (h *Handler) AdminListInvites(c *gin.Context) {
	clan, ok := h.adminClan(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"clan_id": clan.ID, "invites": h.dir.Invites.ForClan(clan.ID)})
}
