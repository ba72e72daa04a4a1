package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	logrus "github.com/sirupsen/logrus"

	"field_tracker/internal/dto"
	"field_tracker/internal/metrics"
	"field_tracker/internal/middleware"
	"field_tracker/internal/services"
	"field_tracker/internal/tasks"
)

// TaskReporter forwards task status to the task service.
type TaskReporter interface {
	ReportStatus(ctx context.Context, taskID, token string) error
}

// DeviceController serves the /device endpoints. Every handler except Login
// runs behind middleware.RequireDevice.
type DeviceController struct {
	devices  *services.DeviceService
	tracks   *services.TrackService
	profiles *services.ProfileService
	tasks    TaskReporter
	metrics  *metrics.Metrics
}

func NewDeviceController(devices *services.DeviceService, tracks *services.TrackService, profiles *services.ProfileService, taskClient TaskReporter, m *metrics.Metrics) *DeviceController {
	return &DeviceController{devices: devices, tracks: tracks, profiles: profiles, tasks: taskClient, metrics: m}
}

func (dc *DeviceController) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		dc.metrics.DeviceLogins.WithLabelValues("invalid").Inc()
		deviceBadBody(c, err)
		return
	}

	res, err := dc.devices.Login(c.Request.Context(), input)
	if err != nil {
		result := "error"
		switch {
		case errors.Is(err, services.ErrAuth):
			result = "denied"
			middleware.Logger(c).WithField("email", input.Email).Info("device login denied")
		case errors.Is(err, services.ErrValidation):
			result = "invalid"
		}
		dc.metrics.DeviceLogins.WithLabelValues(result).Inc()
		deviceError(c, err)
		return
	}

	dc.metrics.DeviceLogins.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, dto.OK(res))
}

// UpdateLocation stores a {geo: {lat, long}} sample.
func (dc *DeviceController) UpdateLocation(c *gin.Context) {
	var req dto.LocationRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		deviceBadBody(c, err)
		return
	}
	if req.Geo == nil {
		deviceError(c, &services.ValidationError{Fields: map[string]string{"geo": "this field is required"}})
		return
	}

	track, err := dc.tracks.ReportLocation(c.Request.Context(), middleware.CurrentDevice(c), req.Geo.Input())
	if err != nil {
		deviceError(c, err)
		return
	}
	dc.metrics.LocationReports.Inc()
	c.JSON(http.StatusOK, dto.OK(track))
}

func (dc *DeviceController) UpdateStatus(c *gin.Context) {
	var input services.StatusInput
	if err := c.ShouldBindBodyWith(&input, binding.JSON); err != nil {
		deviceBadBody(c, err)
		return
	}
	if err := dc.devices.UpdateStatus(c.Request.Context(), middleware.CurrentDevice(c), input); err != nil {
		deviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(nil))
}

// Profile returns the requested profile, or the group default when the
// body names none.
func (dc *DeviceController) Profile(c *gin.Context) {
	var req dto.ProfileRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		deviceBadBody(c, err)
		return
	}

	explicit, err := req.ProfileID.Value("profile_id")
	if err != nil {
		deviceError(c, err)
		return
	}
	profile, err := dc.profiles.Resolve(c.Request.Context(), middleware.CurrentDevice(c), explicit)
	if err != nil {
		deviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(profile))
}

func (dc *DeviceController) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		deviceBadBody(c, err)
		return
	}
	err := dc.devices.Logout(c.Request.Context(), middleware.CurrentDevice(c), c.GetString(middleware.ContextClientKey), req.Password)
	if err != nil {
		deviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(nil))
}

// Task relays a task status to the task service. Any failure there fails
// the request with 502.
func (dc *DeviceController) Task(c *gin.Context) {
	var req dto.TaskRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		deviceBadBody(c, err)
		return
	}
	if req.TaskID == "" {
		deviceError(c, &services.ValidationError{Fields: map[string]string{"task_id": "this field is required"}})
		return
	}

	device := middleware.CurrentDevice(c)
	log := middleware.Logger(c).WithFields(logrus.Fields{
		"device_id": device.ID,
		"task_id":   string(req.TaskID),
		"status":    req.Status,
	})
	log.Info("task update request")

	if err := dc.tasks.ReportStatus(c.Request.Context(), string(req.TaskID), req.Status); err != nil {
		dc.metrics.TaskStatusCalls.WithLabelValues("failed").Inc()
		var statusErr *tasks.StatusError
		if !errors.As(err, &statusErr) && !errors.Is(err, tasks.ErrNotConfigured) {
			reportError(c, err)
		}
		log.WithError(err).Error("could not patch task")
		c.JSON(http.StatusBadGateway, dto.Fail(dto.EmsgUpstream, "task service request failed"))
		return
	}

	dc.metrics.TaskStatusCalls.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, dto.OK(nil))
}

// Ping is a heartbeat; the payload is logged without credentials.
func (dc *DeviceController) Ping(c *gin.Context) {
	payload := map[string]any{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		deviceBadBody(c, err)
		return
	}
	delete(payload, "ckey")
	delete(payload, "pwd")

	middleware.Logger(c).WithFields(logrus.Fields{
		"device_id": middleware.CurrentDevice(c).ID,
		"payload":   payload,
	}).Info("device ping")
	c.JSON(http.StatusOK, dto.OK(nil))
}
