package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refreshToken"

// CookieConfig controls the refresh token cookie.
type CookieConfig struct {
	Secure bool
}

func (cc CookieConfig) setRefresh(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, maxAge, "/", "", cc.Secure, true)
}

func (cc CookieConfig) clearRefresh(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", cc.Secure, true)
}

func refreshCookie(c *gin.Context) string {
	token, err := c.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return token
}
