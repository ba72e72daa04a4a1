package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	logrus "github.com/sirupsen/logrus"

	"field_tracker/internal/dto"
	"field_tracker/internal/models"
	"field_tracker/internal/services"
)

const (
	ContextDevice    = "device"
	ContextClientKey = "client_key"
)

// DeviceAuthenticator is the part of the device service the middleware needs.
type DeviceAuthenticator interface {
	Authenticate(ctx context.Context, deviceID uint, clientKey string) (*models.Device, error)
}

// RequireDevice resolves cid and ckey from the JSON body. The body stays
// readable for the handler through ShouldBindBodyWith.
func RequireDevice(devices DeviceAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds dto.DeviceCredentials
		if err := c.ShouldBindBodyWith(&creds, binding.JSON); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.Fail(dto.EmsgValidation, "malformed JSON body"))
			return
		}

		device, err := devices.Authenticate(c.Request.Context(), uint(creds.CID), creds.CKey)
		if err != nil {
			if errors.Is(err, services.ErrAuth) {
				Logger(c).WithField("cid", uint(creds.CID)).Info("device authentication failed")
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail(dto.EmsgUnauthorized, nil))
				return
			}
			Logger(c).WithError(err).Error("device authentication error")
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Fail(dto.EmsgUpstream, nil))
			return
		}

		c.Set(ContextDevice, device)
		c.Set(ContextClientKey, creds.CKey)
		Logger(c).WithFields(logrus.Fields{"device_id": device.ID, "user_id": device.UserID}).Debug("device authenticated")
		c.Next()
	}
}

// CurrentDevice returns the device stored by RequireDevice.
func CurrentDevice(c *gin.Context) *models.Device {
	device, _ := c.MustGet(ContextDevice).(*models.Device)
	return device
}
