package routes

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"field_tracker/internal/controllers"
	"field_tracker/internal/logger"
	"field_tracker/internal/metrics"
	"field_tracker/internal/middleware"
	"field_tracker/internal/services"
)

// Deps is everything the router hands out to controllers.
type Deps struct {
	DB       *gorm.DB
	Devices  *services.DeviceService
	Tracks   *services.TrackService
	Profiles *services.ProfileService
	Users    *services.UserService
	Groups   *services.GroupService
	Roles    *services.RoleService
	Tasks    controllers.TaskReporter
	Tokens   *middleware.TokenIssuer
	Hub      *controllers.LocationHub
	Metrics  *metrics.Metrics

	// Sentry enables panic and error reporting; sentry.Init must have run.
	Sentry bool
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(
		middleware.RequestID(),
		ginlogger.SetLogger(
			ginlogger.WithWriter(logger.Writer()),
			ginlogger.WithUTC(true),
			ginlogger.WithSkipPath([]string{"/healthz", "/metrics"}),
		),
		deps.Metrics.Middleware(),
	)

	health := controllers.NewHealthController(deps.DB)
	r.GET("/healthz", health.Healthz)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	DeviceRoutes(r, deps)
	AuthRoutes(r, deps)
	AdminRoutes(r, deps)
	WebSocketRoutes(r, deps)

	return r
}
