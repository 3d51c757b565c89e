package router

import (
	"net/http"

	"github.com/bananalabs-oss/clans/internal/clans"
	potassium "github.com/bananalabs-oss/potassium/middleware"
	"github.com/gin-gonic/gin"
)

func Setup(h *clans.Handler, jwtSecret, serviceToken string) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "clans"})
	})

	jwt := potassium.JWTAuth(potassium.JWTConfig{
		Secret: []byte(jwtSecret),
	})

	// Player-facing endpoints (JWT auth via Potassium)
	api := r.Group("/clans")
	api.Use(jwt)
	{
		api.POST("", h.CreateClan)
		api.GET("", h.ListClans)
		api.GET("/mine", h.GetMyClan)
		api.POST("/leave", h.LeaveClan)
		api.DELETE("", h.DisbandClan)
		api.POST("/kick", h.KickMember)
		api.POST("/promote", h.PromoteMember)
		api.POST("/demote", h.DemoteMember)
		api.POST("/transfer", h.TransferOwnership)
		api.PUT("/motd", h.SetMOTD)
		api.PUT("/name", h.RenameClan)
		api.POST("/purchase", h.Purchase)
		api.GET("/scores", h.GetScores)
		api.GET("/top", h.GetClanTop)

		api.POST("/invites", h.InvitePlayer)
		api.GET("/invites", h.ListClanInvites)
		api.DELETE("/invites/:playerId", h.CancelInvite)

		api.POST("/advertisement", h.CreateAdvertisement)
		api.PATCH("/advertisement", h.UpdateAdvertisement)
		api.DELETE("/advertisement", h.RemoveAdvertisement)
	}

	invites := r.Group("/invites")
	invites.Use(jwt)
	{
		invites.GET("", h.ListMyInvites)
		invites.POST("/:clanId/accept", h.AcceptInvite)
		invites.POST("/:clanId/decline", h.DeclineInvite)
	}

	ads := r.Group("/advertisements")
	ads.Use(jwt)
	{
		ads.GET("", h.ListAdvertisements)
		ads.POST("/:clanId/join", h.JoinAdvertised)
	}

	scores := r.Group("/scores")
	scores.Use(jwt)
	{
		scores.GET("/:playerId", h.GetPlayerScores)
	}

	// Internal endpoints (service token auth via Potassium)
	internal := r.Group("/internal")
	internal.Use(potassium.ServiceAuth(serviceToken))
	{
		internal.GET("/clans/:clanId", h.GetClanByID)
		internal.GET("/clans/:clanId/score", h.GetClanScore)
		internal.POST("/clans/:clanId/treasury", h.DepositTreasury)
		internal.GET("/players/:userId/clan", h.GetPlayerClan)
		internal.GET("/clans/:clanId/members/scores", h.GetClanMemberScores)
		internal.POST("/scores/:playerId", h.UpdateScore)
		internal.DELETE("/scores/:playerId", h.ResetScore)

		// Administration
		internal.DELETE("/clans/:clanId", h.AdminDisband)
		internal.POST("/clans/:clanId/kick", h.AdminKick)
		internal.POST("/clans/:clanId/promote", h.AdminPromote)
		internal.POST("/clans/:clanId/demote", h.AdminDemote)
		internal.PUT("/clans/:clanId/name", h.AdminRename)
		internal.DELETE("/clans/:clanId/motd", h.AdminClearMOTD)
		internal.DELETE("/clans/:clanId/advertisement", h.AdminRemoveAdvertisement)
		internal.GET("/clans/:clanId/invites", h.AdminListInvites)
	}

	return r
}
