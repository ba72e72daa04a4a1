package routes

import (
	"github.com/gin-gonic/gin"

	"field_tracker/internal/models"
)

func WebSocketRoutes(r *gin.Engine, deps Deps) {
	wsRoutes := r.Group("/admin/ws")
	wsRoutes.Use(deps.Tokens.RequireAuthWithRole(models.RoleAdmin))
	{
		wsRoutes.GET("/tracks", deps.Hub.HandleTrackFeed)
	}
}
