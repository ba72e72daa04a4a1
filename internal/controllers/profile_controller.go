package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"field_tracker/internal/services"
)

type ProfileController struct {
	profiles *services.ProfileService
}

func NewProfileController(profiles *services.ProfileService) *ProfileController {
	return &ProfileController{profiles: profiles}
}

func (pc *ProfileController) List(c *gin.Context) {
	profiles, err := pc.profiles.List(c.Request.Context())
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (pc *ProfileController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	profile, err := pc.profiles.Get(c.Request.Context(), id)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (pc *ProfileController) Create(c *gin.Context) {
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		adminBadBody(c, err)
		return
	}
	profile, err := pc.profiles.Create(c.Request.Context(), input)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (pc *ProfileController) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		adminBadBody(c, err)
		return
	}
	profile, err := pc.profiles.Update(c.Request.Context(), id, input)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (pc *ProfileController) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := pc.profiles.Delete(c.Request.Context(), id); err != nil {
		adminError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
