package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"field_tracker/internal/services"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// List answers GET /admin/users?start=&limit=&sortf=&sortt=&<filters>.
func (uc *UserController) List(c *gin.Context) {
	query, err := services.ParseUserQuery(c.Request.URL.Query())
	if err != nil {
		adminError(c, err)
		return
	}
	page, err := uc.users.List(c.Request.Context(), query)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (uc *UserController) Create(c *gin.Context) {
	var input services.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		adminBadBody(c, err)
		return
	}
	user, err := uc.users.Create(c.Request.Context(), input)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (uc *UserController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := uc.users.Get(c.Request.Context(), id)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uc *UserController) Patch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input services.PatchUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		adminBadBody(c, err)
		return
	}
	if _, err := uc.users.Patch(c.Request.Context(), id, input); err != nil {
		adminError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (uc *UserController) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := uc.users.Delete(c.Request.Context(), id); err != nil {
		adminError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
