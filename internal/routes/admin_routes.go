package routes

import (
	"github.com/gin-gonic/gin"

	"field_tracker/internal/controllers"
	"field_tracker/internal/models"
)

func AdminRoutes(r *gin.Engine, deps Deps) {
	users := controllers.NewUserController(deps.Users)
	groups := controllers.NewGroupController(deps.Groups, deps.Roles)
	profiles := controllers.NewProfileController(deps.Profiles)
	tracks := controllers.NewTrackController(deps.Tracks, deps.Users)

	admin := r.Group("/admin")
	admin.Use(deps.Tokens.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/groups", groups.ListGroups)
		admin.POST("/groups", groups.CreateGroup)
		admin.GET("/roles", groups.ListRoles)
		admin.POST("/roles", groups.CreateRole)

		admin.GET("/users", users.List)
		admin.POST("/users", users.Create)
		admin.GET("/users/:id", users.Get)
		admin.PATCH("/users/:id", users.Patch)
		admin.DELETE("/users/:id", users.Delete)
		admin.GET("/users/:id/tracks", tracks.History)
		admin.GET("/tracks/recent", tracks.Recent)

		admin.GET("/profiles", profiles.List)
		admin.POST("/profiles", profiles.Create)
		admin.GET("/profiles/:id", profiles.Get)
		admin.PUT("/profiles/:id", profiles.Update)
		admin.DELETE("/profiles/:id", profiles.Delete)
	}
}
