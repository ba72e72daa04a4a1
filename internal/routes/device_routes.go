package routes

import (
	"github.com/gin-gonic/gin"

	"field_tracker/internal/controllers"
	"field_tracker/internal/middleware"
)

func DeviceRoutes(r *gin.Engine, deps Deps) {
	dc := controllers.NewDeviceController(deps.Devices, deps.Tracks, deps.Profiles, deps.Tasks, deps.Metrics)

	device := r.Group("/device")
	device.POST("/login", dc.Login)

	authed := device.Group("")
	authed.Use(middleware.RequireDevice(deps.Devices))
	{
		authed.POST("/update", dc.UpdateLocation)
		authed.POST("/status", dc.UpdateStatus)
		authed.POST("/profile", dc.Profile)
		authed.POST("/logout", dc.Logout)
		authed.POST("/task", dc.Task)
		authed.POST("/ping", dc.Ping)
	}
}
