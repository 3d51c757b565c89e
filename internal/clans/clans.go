package clans

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bananalabs-oss/clans/internal/directory"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Player-facing endpoints ---

func (h *Handler) CreateClan(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := getAccountID(c)

	var req struct {
		Name       string `json:"name" binding:"required"`
		PlayerName string `json:"player_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "name and player_name are required")
		return
	}

	inClan, err := h.dir.Members.InClan(ctx, accountID)
	if err != nil {
		h.internalError(c, "create clan", err)
		return
	}
	if inClan {
		respondError(c, http.StatusConflict, "already_in_clan", "You are already in a clan. Leave first.")
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
		h.internalError(c, "create clan", err)
		return
	}
	if existing != nil {
		respondError(c, http.StatusConflict, "name_taken", "A clan with that name already exists")
		return
	}

	clan, err := h.dir.Clans.Create(ctx, req.Name, colorless, accountID, req.PlayerName)
	if err != nil {
		h.internalError(c, "create clan", err)
		return
	}
	if clan == nil {
		respondError(c, http.StatusConflict, "already_in_clan", "You are already in a clan. Leave first.")
		return
	}

	h.log.Info("clan created",
		zap.String("clan_id", clan.ID.String()),
		zap.String("name", colorless),
		zap.String("owner_id", accountID.String()),
	)
	h.respondClan(c, http.StatusCreated, clan)
}

func (h *Handler) ListClans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"clans": h.dir.Clans.All()})
}

func (h *Handler) GetMyClan(c *gin.Context) {
	_, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	h.respondClan(c, http.StatusOK, clan)
}

func (h *Handler) LeaveClan(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := getAccountID(c)

	member, clan, ok := h.membership(c, accountID)
	if !ok {
		return
	}

	if member.Role == models.TopRole {
		count, err := h.dir.Members.Count(ctx, clan.ID)
		if err != nil {
			h.internalError(c, "leave clan", err)
			return
		}
		if count > 1 {
			respondError(c, http.StatusConflict, "no_permission", "Transfer ownership before leaving")
			return
		}
		h.disband(c, clan)
		return
	}

	if _, err := h.dir.Members.Remove(ctx, accountID); err != nil {
		h.internalError(c, "leave clan", err)
		return
	}
	h.news(c, clan.ID, "%s left the clan", member.PlayerName)

	c.JSON(http.StatusOK, gin.H{"message": "Left clan"})
}

func (h *Handler) DisbandClan(c *gin.Context) {
	member, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleAdmiral, "disband the clan") {
		return
	}
	h.disband(c, clan)
}

func (h *Handler) disband(c *gin.Context, clan *models.Clan) {
	if _, err := h.dir.Clans.Delete(c.Request.Context(), clan.ID); err != nil {
		h.internalError(c, "disband clan", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Clan disbanded"})
}

func (h *Handler) SetMOTD(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		MOTD string `json:"motd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "motd is required")
		return
	}

	member, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleCommodore, "change the message of the day") {
		return
	}
	if !clan.MOTDPurchased {
		respondError(c, http.StatusForbidden, "feature_locked", "The clan has not purchased the message of the day")
		return
	}

	motd := strings.TrimSpace(req.MOTD)
	if utf8.RuneCountInString(motd) > h.settings.Restrictions.MaxMOTDLength {
		respondError(c, http.StatusBadRequest, "invalid_request", "Message of the day is too long")
		return
	}

	updated, err := h.dir.Clans.Modify(ctx, clan.ID, func(cl *models.Clan) { cl.MOTD = motd })
	if err != nil {
		h.internalError(c, "set motd", err)
		return
	}
	if !updated {
		respondError(c, http.StatusNotFound, "clan_not_found", "Clan no longer exists")
		return
	}

	c.JSON(http.StatusOK, gin.H{"motd": motd})
}

func (h *Handler) RenameClan(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	member, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleAdmiral, "rename the clan") {
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

	cost := h.settings.Clan.RenameCost
	if !h.charge(c, clan, cost) {
		return
	}
	updated, err := h.dir.Clans.Modify(ctx, clan.ID, func(cl *models.Clan) {
		cl.Name = req.Name
		cl.ColorlessName = colorless
	})
	if err != nil || !updated {
		h.refund(c, clan.ID, cost)
		if err != nil {
			h.internalError(c, "rename clan", err)
			return
		}
		respondError(c, http.StatusNotFound, "clan_not_found", "Clan no longer exists")
		return
	}
	h.news(c, clan.ID, "%s renamed the clan to %s", member.PlayerName, colorless)

	renamed, err := h.dir.Clans.Get(ctx, clan.ID)
	if err != nil || renamed == nil {
		h.internalError(c, "fetch clan", err)
		return
	}
	h.respondClan(c, http.StatusOK, renamed)
}

// Purchase buys a clan feature or the next slot tier from the treasury.
func (h *Handler) Purchase(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		Item string `json:"item" binding:"required,oneof=chat motd party slots"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "item must be one of chat, motd, party, slots")
		return
	}

	member, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleAdmiral, "make purchases") {
		return
	}

	var (
		cost  int64
		owned bool
		apply func(*models.Clan)
	)
	features := h.settings.Features
	switch req.Item {
	case "chat":
		cost, owned = features.ChatCost, clan.ChatPurchased
		apply = func(cl *models.Clan) { cl.ChatPurchased = true }
	case "motd":
		cost, owned = features.MOTDCost, clan.MOTDPurchased
		apply = func(cl *models.Clan) { cl.MOTDPurchased = true }
	case "party":
		cost, owned = features.PartyCost, clan.PartyPurchased
		apply = func(cl *models.Clan) { cl.PartyPurchased = true }
	case "slots":
		if clan.Slots.IsLast() {
			respondError(c, http.StatusConflict, "slots_maxed", "The clan already has every slot tier")
			return
		}
		cost = h.settings.UpgradeCost(clan.Slots)
		next := clan.Slots.Next()
		apply = func(cl *models.Clan) { cl.Slots = next }
	}
	if owned {
		respondError(c, http.StatusConflict, "feature_owned", "The clan already owns "+req.Item)
		return
	}

	if !h.charge(c, clan, cost) {
		return
	}
	updated, err := h.dir.Clans.Modify(ctx, clan.ID, apply)
	if err != nil || !updated {
		h.refund(c, clan.ID, cost)
		if err != nil {
			h.internalError(c, "purchase", err)
			return
		}
		respondError(c, http.StatusNotFound, "clan_not_found", "Clan no longer exists")
		return
	}
	h.news(c, clan.ID, "%s purchased %s for %d", member.PlayerName, req.Item, cost)

	bought, err := h.dir.Clans.Get(ctx, clan.ID)
	if err != nil || bought == nil {
		h.internalError(c, "fetch clan", err)
		return
	}
	h.respondClan(c, http.StatusOK, bought)
}

// GetScores ranks the caller's clan members in one category, or across all
// of them when no category is given.
func (h *Handler) GetScores(c *gin.Context) {
	ctx := c.Request.Context()

	_, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}

	category := c.Query("category")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(directory.DefaultTopLimit)))

	order := c.DefaultQuery("order", "desc")
	var (
		top []directory.ScoreEntry
		err error
	)
	switch order {
	case "desc":
		top, err = h.dir.Scores.ClanTop(ctx, clan.ID, category, limit)
	case "asc":
		top, err = h.dir.Scores.ClanBottom(ctx, clan.ID, category, limit)
	default:
		respondError(c, http.StatusBadRequest, "invalid_request", "order must be asc or desc")
		return
	}
	if err != nil {
		h.internalError(c, "fetch scores", err)
		return
	}
	total, err := h.dir.Scores.ClanScore(ctx, clan.ID, category)
	if err != nil {
		h.internalError(c, "fetch scores", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clan_id":  clan.ID,
		"category": category,
		"order":    order,
		"total":    total,
		"top":      top,
	})
}

// GetClanTop ranks every clan by its members' combined score.
func (h *Handler) GetClanTop(c *gin.Context) {
	category := c.Query("category")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(directory.DefaultClanTopLimit)))

	ranks, err := h.dir.Scores.TopClans(c.Request.Context(), category, limit)
	if err != nil {
		h.internalError(c, "fetch clan top", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "clans": ranks})
}

// GetPlayerScores shows a player's scores; "me" names the caller.
func (h *Handler) GetPlayerScores(c *gin.Context) {
	var playerID uuid.UUID
	if param := c.Param("playerId"); param == "me" {
		playerID = getAccountID(c)
	} else {
		id, err := uuid.Parse(param)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", "Invalid player ID")
			return
		}
		playerID = id
	}

	row := h.dir.Scores.PlayerScores(playerID)
	if row == nil {
		row = &models.PlayerScore{PlayerID: playerID, Scores: map[string]int{}}
	}
	c.JSON(http.StatusOK, gin.H{"player_id": playerID, "scores": row.Scores, "total": row.Total()})
}
