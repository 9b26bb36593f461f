package api

import (
	"net/http"

	canddelivery "hrflow-backend/internal/candidate/delivery"
	convdelivery "hrflow-backend/internal/conversation/delivery"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every HTTP endpoint.
func NewRouter(candidates *canddelivery.Handler, conversations *convdelivery.Handler) *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.POST("/upload", candidates.Upload)
		api.POST("/departments", candidates.CreateDepartment)
		api.POST("/managers", candidates.CreateManager)
		api.POST("/employees", candidates.CreateEmployee)
		api.POST("/referrals", candidates.CreateReferral)

		api.POST("/candidates/:id/evaluate", candidates.Evaluate)
		api.POST("/candidates/:id/notify-manager", candidates.NotifyManager)
		api.POST("/candidates/:id/send-invites", conversations.SendInvites)
		api.POST("/candidates/:id/propose-time", conversations.ProposeTime)
		api.GET("/candidates/:id/status", conversations.CandidateStatus)

		api.POST("/ingest/manager-replies", conversations.IngestManagerReplies)
		api.POST("/ingest/candidate-replies", conversations.IngestCandidateReplies)

		api.POST("/screening/auto-reject", candidates.AutoReject)
	}

	return router
}
