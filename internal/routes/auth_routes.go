package routes

import (
	"github.com/gin-gonic/gin"

	"field_tracker/internal/controllers"
)

func AuthRoutes(r *gin.Engine, deps Deps) {
	ac := controllers.NewAuthController(deps.Users, deps.Tokens)

	auth := r.Group("/admin/auth")
	{
		auth.POST("/login", ac.Login)
	}
}
