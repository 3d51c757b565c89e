package clans

import (
	"errors"
	"net/http"

	"github.com/bananalabs-oss/clans/internal/directory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// --- Internal endpoints (service-to-service) ---

func (h *Handler) GetClanByID(c *gin.Context) {
	clanID, err := uuid.Parse(c.Param("clanId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid clan ID")
		return
	}

	clan, err := h.dir.Clans.Get(c.Request.Context(), clanID)
	if err != nil {
		h.internalError(c, "fetch clan", err)
		return
	}
	if clan == nil {
		respondError(c, http.StatusNotFound, "clan_not_found", "Clan not found")
		return
	}

	h.respondClan(c, http.StatusOK, clan)
}

func (h *Handler) GetPlayerClan(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid user ID")
		return
	}

	member, clan, ok := h.membership(c, userID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clan_id":   clan.ID,
		"clan_name": clan.Name,
		"role":      member.Role,
		"owner_id":  clan.OwnerID,
		"chat":      clan.ChatPurchased,
		"party":     clan.PartyPurchased,
	})
}

// DepositTreasury credits the clan on behalf of the economy service.
func (h *Handler) DepositTreasury(c *gin.Context) {
	ctx := c.Request.Context()

	clanID, err := uuid.Parse(c.Param("clanId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid clan ID")
		return
	}
	var req struct {
		Amount     int64  `json:"amount" binding:"required"`
		PlayerName string `json:"player_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "amount is required")
		return
	}

	credited, err := h.dir.Clans.AddTreasury(ctx, clanID, req.Amount)
	if errors.Is(err, directory.ErrInvalidAmount) {
		respondError(c, http.StatusBadRequest, "invalid_request", "amount must be positive")
		return
	}
	if err != nil {
		h.internalError(c, "deposit treasury", err)
		return
	}
	if !credited {
		respondError(c, http.StatusNotFound, "clan_not_found", "Clan not found")
		return
	}

	if req.PlayerName != "" {
		h.news(c, clanID, "%s donated %d to the treasury", req.PlayerName, req.Amount)
	} else {
		h.news(c, clanID, "%d was deposited to the treasury", req.Amount)
	}

	clan, err := h.dir.Clans.Get(ctx, clanID)
	if err != nil || clan == nil {
		h.internalError(c, "fetch clan", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clan_id": clanID, "treasury": clan.Treasury})
}

// UpdateScore applies a score change reported by a game server.
func (h *Handler) UpdateScore(c *gin.Context) {
	ctx := c.Request.Context()

	playerID, err := uuid.Parse(c.Param("playerId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid player ID")
		return
	}
	var req struct {
		Action     string `json:"action" binding:"required,oneof=add remove set"`
		PlayerName string `json:"player_name" binding:"required"`
		Category   string `json:"category" binding:"required"`
		Amount     int    `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "action, player_name and category are required")
		return
	}

	switch req.Action {
	case "add":
		err = h.dir.Scores.Add(ctx, playerID, req.PlayerName, req.Category, req.Amount)
	case "remove":
		err = h.dir.Scores.Remove(ctx, playerID, req.PlayerName, req.Category, req.Amount)
	case "set":
		err = h.dir.Scores.Set(ctx, playerID, req.PlayerName, req.Category, req.Amount)
	}
	switch {
	case errors.Is(err, directory.ErrInvalidAmount), errors.Is(err, directory.ErrInvalidCategory):
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case err != nil:
		h.internalError(c, "update score", err)
		return
	}

	c.JSON(http.StatusOK, h.dir.Scores.PlayerScores(playerID))
}

func (h *Handler) GetClanScore(c *gin.Context) {
	ctx := c.Request.Context()

	clanID, err := uuid.Parse(c.Param("clanId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid clan ID")
		return
	}
	exists, err := h.dir.Clans.Exists(ctx, clanID)
	if err != nil {
		h.internalError(c, "fetch clan score", err)
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, "clan_not_found", "Clan not found")
		return
	}

	category := c.Query("category")
	score, err := h.dir.Scores.ClanScore(ctx, clanID, category)
	if err != nil {
		h.internalError(c, "fetch clan score", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"clan_id": clanID, "category": category, "score": score})
}

// ResetScore clears one category of the player's scores, or all of them when
// no category is given.
func (h *Handler) ResetScore(c *gin.Context) {
	ctx := c.Request.Context()

	playerID, err := uuid.Parse(c.Param("playerId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid player ID")
		return
	}

	var reset bool
	if category := c.Query("category"); category != "" {
		reset, err = h.dir.Scores.Reset(ctx, playerID, category)
	} else {
		reset, err = h.dir.Scores.ResetAll(ctx, playerID)
	}
	if err != nil {
		h.internalError(c, "reset score", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"player_id": playerID, "reset": reset})
}

// GetClanMemberScores returns every member's full score row.
func (h *Handler) GetClanMemberScores(c *gin.Context) {
	clanID, err := uuid.Parse(c.Param("clanId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid clan ID")
		return
	}

	scores, err := h.dir.Scores.ClanMemberScores(c.Request.Context(), clanID)
	if err != nil {
		h.internalError(c, "fetch member scores", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clan_id": clanID, "members": scores})
}
