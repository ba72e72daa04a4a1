package controllers

import (
	"errors"
	"net/http"
	"strconv"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"field_tracker/internal/dto"
	"field_tracker/internal/middleware"
	"field_tracker/internal/services"
)

// classify maps a service error to an HTTP status, a device error code and
// the detail the client may see.
func classify(err error) (status, emsg int, detail any) {
	var (
		verr *services.ValidationError
		nerr *services.NotFoundError
		cerr *services.ConflictError
	)
	switch {
	case errors.Is(err, services.ErrAuth):
		return http.StatusUnauthorized, dto.EmsgUnauthorized, nil
	case errors.As(err, &verr):
		return http.StatusBadRequest, dto.EmsgValidation, verr.Fields
	case errors.As(err, &nerr):
		return http.StatusNotFound, dto.EmsgNotFound, nerr.Error()
	case errors.As(err, &cerr):
		return http.StatusConflict, dto.EmsgConflict, cerr.Detail
	default:
		return http.StatusInternalServerError, dto.EmsgUpstream, nil
	}
}

// reportError logs a server-side failure and forwards it to Sentry when enabled.
func reportError(c *gin.Context, err error) {
	middleware.Logger(c).WithError(err).WithField("path", c.FullPath()).Error("request failed")
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

func deviceError(c *gin.Context, err error) {
	status, emsg, detail := classify(err)
	if status == http.StatusInternalServerError {
		reportError(c, err)
	}
	c.JSON(status, dto.Fail(emsg, detail))
}

func deviceBadBody(c *gin.Context, err error) {
	middleware.Logger(c).WithError(err).Debug("unreadable device request")
	c.JSON(http.StatusBadRequest, dto.Fail(dto.EmsgValidation, "malformed JSON body"))
}

func adminError(c *gin.Context, err error) {
	status, _, detail := classify(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		reportError(c, err)
		message = "internal server error"
	case http.StatusUnauthorized:
		message = "invalid credentials"
	}
	c.JSON(status, dto.ErrorResponse{Error: message, Detail: detail})
}

func adminBadBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body", Detail: err.Error()})
}

// pathID parses the :id route parameter, answering 400 itself when it is not a positive integer.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return uint(id), true
}
