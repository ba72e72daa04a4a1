package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"field_tracker/internal/services"
)

// GroupController serves groups and roles, the two lookup tables users point at.
type GroupController struct {
	groups *services.GroupService
	roles  *services.RoleService
}

func NewGroupController(groups *services.GroupService, roles *services.RoleService) *GroupController {
	return &GroupController{groups: groups, roles: roles}
}

func (gc *GroupController) ListGroups(c *gin.Context) {
	groups, err := gc.groups.List(c.Request.Context())
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (gc *GroupController) CreateGroup(c *gin.Context) {
	var input services.GroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		adminBadBody(c, err)
		return
	}
	group, err := gc.groups.Create(c.Request.Context(), input)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (gc *GroupController) ListRoles(c *gin.Context) {
	roles, err := gc.roles.List(c.Request.Context())
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (gc *GroupController) CreateRole(c *gin.Context) {
	var input services.RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		adminBadBody(c, err)
		return
	}
	role, err := gc.roles.Create(c.Request.Context(), input)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}
