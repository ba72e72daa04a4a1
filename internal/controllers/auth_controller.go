package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"field_tracker/internal/dto"
	"field_tracker/internal/middleware"
	"field_tracker/internal/models"
	"field_tracker/internal/services"
)

// AuthController issues admin tokens.
type AuthController struct {
	users  *services.UserService
	tokens *middleware.TokenIssuer
}

func NewAuthController(users *services.UserService, tokens *middleware.TokenIssuer) *AuthController {
	return &AuthController{users: users, tokens: tokens}
}

func (ac *AuthController) Login(c *gin.Context) {
	var body dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		adminBadBody(c, err)
		return
	}

	user, err := ac.users.AuthenticateAdmin(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		adminError(c, err)
		return
	}

	token, err := ac.tokens.GenerateToken(user.ID, models.RoleAdmin)
	if err != nil {
		reportError(c, err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "could not generate token"})
		return
	}

	middleware.Logger(c).WithField("user_id", user.ID).Info("admin signed in")
	c.JSON(http.StatusOK, dto.AdminLoginResponse{Token: token, User: user})
}
