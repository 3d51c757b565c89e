package clans

import (
	"net/http"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) InvitePlayer(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := getAccountID(c)

	var req struct {
		PlayerID   uuid.UUID `json:"player_id" binding:"required"`
		PlayerName string    `json:"player_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "player_id and player_name are required")
		return
	}

	member, clan, ok := h.membership(c, accountID)
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleSenior, "invite players") {
		return
	}

	inClan, err := h.dir.Members.InClan(ctx, req.PlayerID)
	if err != nil {
		h.internalError(c, "invite player", err)
		return
	}
	if inClan {
		respondError(c, http.StatusConflict, "already_in_clan", "That player is already in a clan")
		return
	}
	if h.dir.Invites.Has(clan.ID, req.PlayerID) {
		respondError(c, http.StatusConflict, "already_invited", "That player already has an invite")
		return
	}
	if !h.hasRoom(c, clan) {
		return
	}

	created, err := h.dir.Invites.Create(ctx, clan.ID, req.PlayerID, req.PlayerName)
	if err != nil {
		h.internalError(c, "invite player", err)
		return
	}
	if !created {
		respondError(c, http.StatusConflict, "already_invited", "That player already has an invite")
		return
	}

	h.log.Info("player invited",
		zap.String("clan_id", clan.ID.String()),
		zap.String("player_id", req.PlayerID.String()),
		zap.String("invited_by", accountID.String()),
	)
	c.JSON(http.StatusCreated, h.dir.Invites.Get(clan.ID, req.PlayerID))
}

func (h *Handler) ListClanInvites(c *gin.Context) {
	member, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleSenior, "view invites") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": h.dir.Invites.ForClan(clan.ID)})
}

// CancelInvite withdraws an invite; the path names the player by id or by name.
func (h *Handler) CancelInvite(c *gin.Context) {
	member, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleSenior, "cancel invites") {
		return
	}

	playerID, err := uuid.Parse(c.Param("playerId"))
	if err != nil {
		inv := h.dir.Invites.GetByName(clan.ID, c.Param("playerId"))
		if inv == nil {
			respondError(c, http.StatusNotFound, "invite_not_found", "No invite for that player")
			return
		}
		playerID = inv.PlayerID
	}

	removed, err := h.dir.Invites.Remove(c.Request.Context(), clan.ID, playerID)
	if err != nil {
		h.internalError(c, "cancel invite", err)
		return
	}
	if !removed {
		respondError(c, http.StatusNotFound, "invite_not_found", "No invite for that player")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite cancelled"})
}

// ListMyInvites returns the caller's pending invites with the inviting clans.
func (h *Handler) ListMyInvites(c *gin.Context) {
	ctx := c.Request.Context()

	type pending struct {
		models.Invite
		ClanName string `json:"clan_name"`
	}

	invites := h.dir.Invites.ForPlayer(getAccountID(c))
	out := make([]pending, 0, len(invites))
	for _, inv := range invites {
		clan, err := h.dir.Clans.Get(ctx, inv.ClanID)
		if err != nil {
			h.internalError(c, "list invites", err)
			return
		}
		if clan == nil {
			continue
		}
		out = append(out, pending{Invite: inv, ClanName: clan.Name})
	}

	c.JSON(http.StatusOK, gin.H{"invites": out})
}

func (h *Handler) AcceptInvite(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := getAccountID(c)

	clanID, err := uuid.Parse(c.Param("clanId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid clan ID")
		return
	}

	inv := h.dir.Invites.Get(clanID, accountID)
	if inv == nil {
		respondError(c, http.StatusNotFound, "invite_not_found", "You have no invite from that clan")
		return
	}

	inClan, err := h.dir.Members.InClan(ctx, accountID)
	if err != nil {
		h.internalError(c, "accept invite", err)
		return
	}
	if inClan {
		respondError(c, http.StatusConflict, "already_in_clan", "You are already in a clan. Leave first.")
		return
	}

	clan, err := h.dir.Clans.Get(ctx, clanID)
	if err != nil {
		h.internalError(c, "accept invite", err)
		return
	}
	if clan == nil {
		respondError(c, http.StatusNotFound, "clan_not_found", "That clan no longer exists")
		return
	}
	if !h.hasRoom(c, clan) {
		return
	}

	joined, err := h.dir.Invites.Accept(ctx, clanID, accountID)
	if err != nil {
		if !joined {
			h.internalError(c, "accept invite", err)
			return
		}
		h.log.Warn("joined but pending invites were not cleared", zap.String("player_id", accountID.String()), zap.Error(err))
	}
	if !joined {
		respondError(c, http.StatusConflict, "invite_not_found", "The invite could not be used")
		return
	}
	h.news(c, clanID, "%s joined the clan", inv.PlayerName)

	h.respondClan(c, http.StatusOK, clan)
}

func (h *Handler) DeclineInvite(c *gin.Context) {
	clanID, err := uuid.Parse(c.Param("clanId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid clan ID")
		return
	}

	declined, err := h.dir.Invites.Decline(c.Request.Context(), clanID, getAccountID(c))
	if err != nil {
		h.internalError(c, "decline invite", err)
		return
	}
	if !declined {
		respondError(c, http.StatusNotFound, "invite_not_found", "You have no invite from that clan")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite declined"})
}
