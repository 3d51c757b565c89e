package clans

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bananalabs-oss/clans/internal/config"
	"github.com/bananalabs-oss/clans/internal/directory"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const newsTimeLayout = "02.01.2006 15:04"

type Handler struct {
	dir      *directory.Directory
	settings *config.Settings
	log      *zap.Logger
	now      func() time.Time
}

func NewHandler(dir *directory.Directory, settings *config.Settings, log *zap.Logger) *Handler {
	return &Handler{
		dir:      dir,
		settings: settings,
		log:      log,
		now:      time.Now,
	}
}

func getAccountID(c *gin.Context) uuid.UUID {
	return uuid.MustParse(c.GetString("account_id"))
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Error: code, Message: message})
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.log.Error("request failed", zap.String("op", op), zap.Error(err))
	respondError(c, http.StatusInternalServerError, "internal_error", "Failed to "+op)
}

// membership resolves the caller's clan. It writes the error response and
// returns ok=false when the caller is not in a clan.
func (h *Handler) membership(c *gin.Context, accountID uuid.UUID) (*models.Member, *models.Clan, bool) {
	ctx := c.Request.Context()

	member, err := h.dir.Members.Get(ctx, accountID)
	if err != nil {
		h.internalError(c, "fetch membership", err)
		return nil, nil, false
	}
	if member == nil {
		respondError(c, http.StatusNotFound, "not_in_clan", "You are not in a clan")
		return nil, nil, false
	}

	clan, err := h.dir.Clans.Get(ctx, member.ClanID)
	if err != nil {
		h.internalError(c, "fetch clan", err)
		return nil, nil, false
	}
	if clan == nil {
		respondError(c, http.StatusNotFound, "not_in_clan", "You are not in a clan")
		return nil, nil, false
	}
	return member, clan, true
}

func requireRole(c *gin.Context, member *models.Member, min models.Role, action string) bool {
	if member.Role.AtLeast(min) {
		return true
	}
	respondError(c, http.StatusForbidden, "no_permission",
		fmt.Sprintf("Only %s or higher can %s", min, action))
	return false
}

// target resolves a member of clanID for moderation. It writes the error
// response and returns nil when the player is not in that clan.
func (h *Handler) target(c *gin.Context, clanID uuid.UUID, req targetRequest) *models.Member {
	var (
		member *models.Member
		err    error
	)
	if req.PlayerID != uuid.Nil {
		member, err = h.dir.Members.Member(c.Request.Context(), clanID, req.PlayerID)
	} else {
		member, err = h.dir.Members.MemberByName(c.Request.Context(), clanID, req.PlayerName)
	}
	if err != nil {
		h.internalError(c, "fetch member", err)
		return nil
	}
	if member == nil {
		respondError(c, http.StatusNotFound, "target_not_found", "That player is not in your clan")
		return nil
	}
	return member
}

// hasRoom reports whether the clan can take one more member, writing
// slots_full otherwise.
func (h *Handler) hasRoom(c *gin.Context, clan *models.Clan) bool {
	count, err := h.dir.Members.Count(c.Request.Context(), clan.ID)
	if err != nil {
		h.internalError(c, "count members", err)
		return false
	}
	if count >= h.dir.Clans.MaxMembers(clan) {
		respondError(c, http.StatusConflict, "slots_full", "The clan has no free slots")
		return false
	}
	return true
}

// charge debits cost from the clan treasury after checking funds.
func (h *Handler) charge(c *gin.Context, clan *models.Clan, cost int64) bool {
	if cost <= 0 {
		return true
	}
	if clan.Treasury < cost {
		respondError(c, http.StatusPaymentRequired, "insufficient_funds",
			fmt.Sprintf("The treasury is %d short", cost-clan.Treasury))
		return false
	}
	if _, err := h.dir.Clans.SubtractTreasury(c.Request.Context(), clan.ID, cost); err != nil {
		h.internalError(c, "charge treasury", err)
		return false
	}
	return true
}

// refund returns a charge whose purchase did not go through.
func (h *Handler) refund(c *gin.Context, clanID uuid.UUID, cost int64) {
	if cost <= 0 {
		return
	}
	if _, err := h.dir.Clans.AddTreasury(c.Request.Context(), clanID, cost); err != nil {
		h.log.Error("failed to refund treasury",
			zap.String("clan_id", clanID.String()),
			zap.Int64("amount", cost),
			zap.Error(err),
		)
	}
}

func (h *Handler) news(c *gin.Context, clanID uuid.UUID, format string, args ...any) {
	entry := fmt.Sprintf("[%s] ", h.now().UTC().Format(newsTimeLayout)) + fmt.Sprintf(format, args...)
	if _, err := h.dir.Clans.PushNews(c.Request.Context(), clanID, entry); err != nil {
		h.log.Warn("failed to record clan news", zap.String("clan_id", clanID.String()), zap.Error(err))
	}
}

// clanView is a clan together with its current roster.
type clanView struct {
	*models.Clan
	Members    []models.Member `json:"members"`
	MaxMembers int             `json:"max_members"`
	Score      int64           `json:"score"`
}

func (h *Handler) view(c *gin.Context, clan *models.Clan) (*clanView, error) {
	ctx := c.Request.Context()
	members, err := h.dir.Members.List(ctx, clan.ID)
	if err != nil {
		return nil, err
	}
	score, err := h.dir.Scores.ClanScore(ctx, clan.ID, directory.AllCategories)
	if err != nil {
		return nil, err
	}
	return &clanView{
		Clan:       clan,
		Members:    members,
		MaxMembers: h.dir.Clans.MaxMembers(clan),
		Score:      score,
	}, nil
}

func (h *Handler) respondClan(c *gin.Context, status int, clan *models.Clan) {
	v, err := h.view(c, clan)
	if err != nil {
		h.internalError(c, "fetch clan", err)
		return
	}
	c.JSON(status, v)
}
