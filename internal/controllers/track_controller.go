package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"field_tracker/internal/services"
)

type TrackController struct {
	tracks *services.TrackService
	users  *services.UserService
}

func NewTrackController(tracks *services.TrackService, users *services.UserService) *TrackController {
	return &TrackController{tracks: tracks, users: users}
}

// History answers GET /admin/users/:id/tracks, as a JSON list or, with
// ?format=geojson, as a GeoJSON feature.
func (tc *TrackController) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := tc.users.Get(ctx, id); err != nil {
		adminError(c, err)
		return
	}

	if c.Query("format") == "geojson" {
		feature, err := tc.tracks.HistoryFeature(ctx, id)
		if err != nil {
			adminError(c, err)
			return
		}
		c.Header("Content-Type", "application/geo+json")
		c.JSON(http.StatusOK, feature)
		return
	}

	history, err := tc.tracks.ListHistory(ctx, id)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// Recent answers GET /admin/tracks/recent?id=1,2,3 with the newest sample of each user.
func (tc *TrackController) Recent(c *gin.Context) {
	ids, err := parseIDList(c.Query("id"))
	if err != nil {
		adminError(c, err)
		return
	}
	latest, err := tc.tracks.LatestPerUser(c.Request.Context(), ids)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, latest)
}

func parseIDList(raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &services.ValidationError{Fields: map[string]string{"id": "this field is required"}}
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 0)
		if err != nil {
			return nil, &services.ValidationError{Fields: map[string]string{"id": "must be a comma separated list of integer ids"}}
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}
