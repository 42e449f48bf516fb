package handler

import (
	"github.com/gin-gonic/gin"

	authapp "github.com/smartspace/backend/internal/application/auth"
	"github.com/smartspace/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles dashboard sign-in
type AuthHandler struct {
	BaseHandler
	authService *authapp.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *authapp.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges email and password for a token pair.
// @Summary      Sign in
// @Description  Exchange email and password for an access and refresh token pair
// @Tags         auth
// @ID           login
// @Accept       json
// @Produce      json
// @Param        request body authapp.LoginInput true "Login credentials"
// @Success      200 {object} dto.Response{data=authapp.TokenResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req authapp.LoginInput
	if !h.BindJSON(c, &req) {
		return
	}
	req.IP = c.ClientIP()

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refresh issues a new pair for a valid refresh token.
// @Summary      Refresh tokens
// @Description  Issue a new token pair for a valid refresh token
// @Tags         auth
// @ID           refreshToken
// @Accept       json
// @Produce      json
// @Param        request body authapp.RefreshInput true "Refresh token"
// @Success      200 {object} dto.Response{data=authapp.TokenResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req authapp.RefreshInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout revokes the presented access token.
// @Summary      Sign out
// @Description  Revoke the presented access token
// @Tags         auth
// @ID           logout
// @Produce      json
// @Success      200 {object} dto.Response{data=object}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Logged out successfully"})
}

// Me returns the signed-in employee.
// @Summary      Current user
// @Description  Return the signed-in employee profile
// @Tags         auth
// @ID           getCurrentUser
// @Produce      json
// @Success      200 {object} dto.Response{data=authapp.UserInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
