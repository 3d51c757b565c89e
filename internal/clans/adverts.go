package clans

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bananalabs-oss/clans/internal/directory"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) CreateAdvertisement(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		JoinType string `json:"join_type" binding:"required"`
		Tariff   string `json:"tariff" binding:"required"`
		Text     string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "join_type and tariff are required")
		return
	}
	joinType, ok := models.ParseJoinType(req.JoinType)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid_request", "join_type must be OPEN or INVITE")
		return
	}
	tariff := models.Tariff(strings.ToUpper(strings.TrimSpace(req.Tariff)))
	plan, ok := h.settings.Tariff(tariff)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid_request", "Unknown tariff")
		return
	}
	text, ok := h.adText(c, req.Text)
	if !ok {
		return
	}

	member, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleCommodore, "advertise the clan") {
		return
	}
	if h.dir.Adverts.HasActive(clan.ID) {
		respondError(c, http.StatusConflict, "advertisement_exists", "The clan already has a live advertisement")
		return
	}

	if !h.charge(c, clan, plan.Cost) {
		return
	}
	created, err := h.dir.Adverts.Create(ctx, clan.ID, joinType, tariff, text)
	if err != nil || !created {
		h.refund(c, clan.ID, plan.Cost)
		switch {
		case errors.Is(err, directory.ErrUnknownTariff):
			respondError(c, http.StatusBadRequest, "invalid_request", "Unknown tariff")
		case err != nil:
			h.internalError(c, "create advertisement", err)
		default:
			respondError(c, http.StatusConflict, "advertisement_exists", "The clan already has a live advertisement")
		}
		return
	}
	h.news(c, clan.ID, "%s advertised the clan", member.PlayerName)

	c.JSON(http.StatusCreated, h.dir.Adverts.Active(clan.ID))
}

func (h *Handler) UpdateAdvertisement(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		JoinType *string `json:"join_type"`
		Text     *string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.JoinType == nil && req.Text == nil) {
		respondError(c, http.StatusBadRequest, "invalid_request", "join_type or text is required")
		return
	}

	var joinType models.JoinType
	if req.JoinType != nil {
		jt, ok := models.ParseJoinType(*req.JoinType)
		if !ok {
			respondError(c, http.StatusBadRequest, "invalid_request", "join_type must be OPEN or INVITE")
			return
		}
		joinType = jt
	}
	var text string
	if req.Text != nil {
		t, ok := h.adText(c, *req.Text)
		if !ok {
			return
		}
		text = t
	}

	member, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleCommodore, "edit the advertisement") {
		return
	}

	updated := true
	var err error
	if req.JoinType != nil {
		updated, err = h.dir.Adverts.UpdateJoinType(ctx, clan.ID, joinType)
	}
	if err == nil && updated && req.Text != nil {
		updated, err = h.dir.Adverts.UpdateText(ctx, clan.ID, text)
	}
	if err != nil {
		h.internalError(c, "update advertisement", err)
		return
	}
	if !updated {
		respondError(c, http.StatusNotFound, "no_advertisement", "The clan has no live advertisement")
		return
	}

	c.JSON(http.StatusOK, h.dir.Adverts.Active(clan.ID))
}

func (h *Handler) RemoveAdvertisement(c *gin.Context) {
	member, clan, ok := h.membership(c, getAccountID(c))
	if !ok {
		return
	}
	if !requireRole(c, member, models.RoleCommodore, "remove the advertisement") {
		return
	}

	removed, err := h.dir.Adverts.Remove(c.Request.Context(), clan.ID)
	if err != nil {
		h.internalError(c, "remove advertisement", err)
		return
	}
	if !removed {
		respondError(c, http.StatusNotFound, "no_advertisement", "The clan has no advertisement")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Advertisement removed"})
}

// ListAdvertisements shows every live advertisement with its clan's name and
// free slots.
func (h *Handler) ListAdvertisements(c *gin.Context) {
	ctx := c.Request.Context()

	type listing struct {
		models.Advertisement
		ClanName  string `json:"clan_name"`
		Members   int    `json:"members"`
		FreeSlots int    `json:"free_slots"`
	}

	ads := h.dir.Adverts.AllActive()
	out := make([]listing, 0, len(ads))
	for _, ad := range ads {
		clan, err := h.dir.Clans.Get(ctx, ad.ClanID)
		if err != nil {
			h.internalError(c, "list advertisements", err)
			return
		}
		if clan == nil {
			continue
		}
		count, err := h.dir.Members.Count(ctx, clan.ID)
		if err != nil {
			h.internalError(c, "list advertisements", err)
			return
		}
		out = append(out, listing{
			Advertisement: ad,
			ClanName:      clan.Name,
			Members:       count,
			FreeSlots:     max(h.dir.Clans.MaxMembers(clan)-count, 0),
		})
	}

	c.JSON(http.StatusOK, gin.H{"advertisements": out})
}

// JoinAdvertised joins a clan straight from an open advertisement.
func (h *Handler) JoinAdvertised(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := getAccountID(c)

	clanID, err := uuid.Parse(c.Param("clanId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid clan ID")
		return
	}
	var req struct {
		PlayerName string `json:"player_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "player_name is required")
		return
	}

	ad := h.dir.Adverts.Active(clanID)
	if ad == nil {
		respondError(c, http.StatusNotFound, "no_advertisement", "That clan is not advertising")
		return
	}
	if ad.JoinType != models.JoinOpen {
		respondError(c, http.StatusForbidden, "invite_only", "That clan only accepts invited players")
		return
	}

	inClan, err := h.dir.Members.InClan(ctx, accountID)
	if err != nil {
		h.internalError(c, "join clan", err)
		return
	}
	if inClan {
		respondError(c, http.StatusConflict, "already_in_clan", "You are already in a clan. Leave first.")
		return
	}

	clan, err := h.dir.Clans.Get(ctx, clanID)
	if err != nil {
		h.internalError(c, "join clan", err)
		return
	}
	if clan == nil {
		respondError(c, http.StatusNotFound, "clan_not_found", "That clan no longer exists")
		return
	}
	if !h.hasRoom(c, clan) {
		return
	}

	joined, err := h.dir.Members.Add(ctx, clanID, accountID, req.PlayerName, models.RoleRecruit)
	if err != nil {
		if !joined {
			h.internalError(c, "join clan", err)
			return
		}
		h.log.Warn("joined but pending invites were not cleared", zap.String("player_id", accountID.String()), zap.Error(err))
	}
	if !joined {
		respondError(c, http.StatusConflict, "already_in_clan", "You are already in a clan")
		return
	}
	h.news(c, clanID, "%s joined the clan", req.PlayerName)

	h.respondClan(c, http.StatusOK, clan)
}

func (h *Handler) adText(c *gin.Context, raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if utf8.RuneCountInString(text) > h.settings.Restrictions.MaxAdLength {
		respondError(c, http.StatusBadRequest, "invalid_request", "Advertisement text is too long")
		return "", false
	}
	return text, true
}
