package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the session cookies written by the auth handlers.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	Secure      bool
}

// setRefreshCookie stores the refresh token as an HttpOnly, SameSite=Lax cookie
// that lives as long as the capped refresh lifetime.
func (cc CookieConfig) setRefreshCookie(c *gin.Context, token string, maxAge int64) {
	if token == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.RefreshName, token, int(maxAge), cc.Path, cc.Domain, cc.Secure, true)
}

func (cc CookieConfig) clearRefreshCookie(c *gin.Context) {
	cc.clear(c, cc.RefreshName)
}

// clearAccessCookie removes any access token cookie; access tokens are only
// ever returned in the response body.
func (cc CookieConfig) clearAccessCookie(c *gin.Context) {
	cc.clear(c, cc.AccessName)
}

func (cc CookieConfig) clear(c *gin.Context, name string) {
	if name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, cc.Path, cc.Domain, cc.Secure, true)
}

func (cc CookieConfig) refreshFromCookie(c *gin.Context) string {
	v, err := c.Cookie(cc.RefreshName)
	if err != nil {
		return ""
	}
	return v
}
