package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/dto"
	"github.com/prperemyshlev/grocery-store/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles sessions and the caller's own account.
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	cookies     CookieConfig
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, userService service.UserService, cookies CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		cookies:     cookies,
		logger:      logger,
	}
}

func clientInfo(c *gin.Context) domain.ClientInfo {
	return domain.ClientInfo{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}

func (h *AuthHandler) respondSession(c *gin.Context, status int, session *service.Session) {
	h.cookies.setRefresh(c, session.RefreshToken, session.ExpiresIn)
	c.JSON(status, dto.AuthResponse{
		User:        session.User,
		AccessToken: session.AccessToken,
	})
}

// Register handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	session, err := h.authService.Register(c.Request.Context(), &req, clientInfo(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.respondSession(c, http.StatusCreated, session)
}

// Login handles user login
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	session, err := h.authService.Login(c.Request.Context(), &req, clientInfo(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.respondSession(c, http.StatusOK, session)
}

// Refresh exchanges the refresh cookie for a new token pair.
// @Summary Refresh tokens
// @Tags auth
// @Produce json
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	session, err := h.authService.Refresh(c.Request.Context(), refreshCookie(c), clientInfo(c))
	if err != nil {
		h.cookies.clearRefresh(c)
		respondError(c, h.logger, err)
		return
	}

	h.respondSession(c, http.StatusOK, session)
}

// Logout revokes the refresh cookie's token and clears it. No bearer token is needed.
// @Summary Logout user
// @Tags auth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), refreshCookie(c)); err != nil {
		h.logger.Warn("failed to revoke refresh token on logout", zap.Error(err))
	}

	h.cookies.clearRefresh(c)
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "logged out"})
}

// Me returns the caller, or a null user when the request carries no valid token.
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := CurrentUser(c)
	c.JSON(http.StatusOK, dto.UserResponse{User: user})
}

// UpdateProfile applies the whitelisted profile fields of the caller.
// @Summary Update profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/update [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, _ := CurrentUser(c)

	var req dto.UpdateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserResponse{User: updated})
}

// ChangePassword replaces the password and signs out every other session.
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/change-password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, _ := CurrentUser(c)

	var req dto.ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), user.ID, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "password updated"})
}

// DeleteAccount removes the caller together with their orders.
// @Summary Delete own account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/delete-account [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	user, _ := CurrentUser(c)

	if err := h.userService.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.clearRefresh(c)
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "account deleted"})
}
