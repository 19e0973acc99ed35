package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/service"
	"go.uber.org/zap"
)

// OAuthHandler runs the browser redirect flow. A nil flow means the provider is disabled.
type OAuthHandler struct {
	flow        *service.OAuthFlow
	frontendURL string
	cookies     CookieConfig
	logger      *zap.Logger
}

func NewOAuthHandler(flow *service.OAuthFlow, frontendURL string, cookies CookieConfig, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		flow:        flow,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		cookies:     cookies,
		logger:      logger,
	}
}

func (h *OAuthHandler) enabled(c *gin.Context) bool {
	if h.flow == nil {
		respondError(c, h.logger, apperror.NotFound("google login is not enabled"))
		return false
	}
	return true
}

// Begin redirects the browser to the provider.
// @Summary Start Google login
// @Tags auth
// @Success 302
// @Failure 503 {object} dto.ErrorResponse
// @Router /auth/google [get]
func (h *OAuthHandler) Begin(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	target, err := h.flow.Begin(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Redirect(http.StatusFound, target)
}

// Callback finishes the flow and hands the access token to the frontend.
// @Summary Google login callback
// @Tags auth
// @Param state query string true "Flow state"
// @Param code query string true "Authorization code"
// @Success 302
// @Router /auth/google/callback [get]
func (h *OAuthHandler) Callback(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	session, err := h.flow.Complete(c.Request.Context(), c.Query("state"), c.Query("code"), clientInfo(c))
	if err != nil {
		h.logger.Warn("oauth callback failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.frontendURL+"/login?error=google")
		return
	}

	h.cookies.setRefresh(c, session.RefreshToken, session.ExpiresIn)
	c.Redirect(http.StatusFound, h.frontendURL+"/auth-success?token="+url.QueryEscape(session.AccessToken))
}
