package router

import (
	"net/http"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/handler"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/pkg/constants"
	"github.com/gin-gonic/gin"
)

// New builds the HTTP router.
func New(
	collab *handler.CollabHandler,
	content *handler.ContentHandler,
	video *handler.VideoHandler,
	ws *handler.WSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)
	r.GET(constants.PathStats, video.Stats)

	// Collaboration sessions
	collaboration := r.Group("/collaboration")
	{
		collaboration.POST("/videos/:videoId/session", collab.CreateSession)
		collaboration.GET("/sessions/:id", collab.GetSession)
		collaboration.POST("/sessions/:id/invite", collab.Invite)
		collaboration.POST("/sessions/:id/invites/:token/accept", collab.AcceptInvite)
		collaboration.DELETE("/sessions/:id/participants/:userId", collab.RemoveParticipant)
		collaboration.DELETE("/sessions/:id", collab.CloseSession)

		// Timeline comments and AI suggestions
		collaboration.POST("/videos/:videoId/comments", content.AddComment)
		collaboration.GET("/videos/:videoId/comments", content.GetComments)
		collaboration.PUT("/comments/:commentId", content.UpdateComment)
		collaboration.DELETE("/comments/:commentId", content.DeleteComment)
		collaboration.PATCH("/comments/:commentId/resolve", content.ResolveComment)
		collaboration.POST("/comments/:commentId/dismiss", content.DismissSuggestion)

		// Languages and AI reviews
		collaboration.POST("/videos/:videoId/languages", content.AddLanguage)
		collaboration.GET("/videos/:videoId/languages", content.GetLanguages)
		collaboration.GET("/videos/:videoId/languages/:language/subtitles", content.GetSubtitles)
		collaboration.POST("/videos/:videoId/ai-review", content.CreateReview)
		collaboration.GET("/videos/:videoId/ai-review", content.GetReview)
		collaboration.PATCH("/ai-reviews/:reviewId/dismiss", content.DismissReview)
		collaboration.GET("/videos/:videoId/analytics", content.Analytics)
	}

	// Playback REST fallback
	r.GET("/videos/:id/metadata", video.GetMetadata)
	r.PUT("/videos/:id/playback", video.UpdatePlayback)

	// Processing pipeline callback
	r.POST("/internal/sessions/:id/events", video.RelayEvent)

	// Real-time channel
	r.GET("/ws", ws.ServeWS)

	return r
}
