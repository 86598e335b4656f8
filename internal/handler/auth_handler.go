package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"authbridge/internal/domain"
	"authbridge/internal/middleware"
	"authbridge/internal/service"
)

// SessionResponse is the client-visible part of a session. The refresh token is
// only ever delivered as a cookie.
type SessionResponse struct {
	AccessToken      string `json:"accessToken"`
	ExpiresIn        int64  `json:"expiresIn"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
	TokenType        string `json:"tokenType"`
}

// AuthResponse is returned by every endpoint that yields a session.
type AuthResponse struct {
	User            *domain.Profile  `json:"user"`
	Session         *SessionResponse `json:"session"`
	ProfileComplete bool             `json:"profileComplete"`
	IsNewUser       bool             `json:"isNewUser"`
}

// ProfileResponse is a profile plus its completeness.
type ProfileResponse struct {
	User            *domain.Profile `json:"user"`
	ProfileComplete bool            `json:"profileComplete"`
}

// AuthHandler handles authentication and profile endpoints.
type AuthHandler struct {
	sessions service.SessionService
	cookies  CookieConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions service.SessionService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies}
}

// GoogleSession handles POST /api/auth/google/session
func (h *AuthHandler) GoogleSession(c *gin.Context) {
	var req GoogleSessionRequest
	if err := bindJSON(c, &req); err != nil {
		HandleError(c, err)
		return
	}

	out, err := h.sessions.ExchangeGoogleSession(c.Request.Context(), service.GoogleSessionInput{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresIn:    req.ExpiresIn,
		TokenType:    req.TokenType,
	})
	if err != nil {
		h.cookies.clearAccessCookie(c)
		HandleError(c, err)
		return
	}

	h.writeSessionCookies(c, out)
	if out.IsNewUser {
		RespondCreated(c, "Registered with Google", authResponse(out))
	} else {
		RespondOK(c, "Authenticated with Google", authResponse(out))
	}
}

// GoogleRefresh handles POST /api/auth/google/session/refresh
func (h *AuthHandler) GoogleRefresh(c *gin.Context) {
	token, ok := h.refreshToken(c)
	if !ok {
		return
	}

	out, err := h.sessions.RefreshGoogleSession(c.Request.Context(), token)
	if err != nil {
		h.cookies.clearAccessCookie(c)
		HandleError(c, err)
		return
	}

	h.writeSessionCookies(c, out)
	RespondOK(c, "Session refreshed", authResponse(out))
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		HandleError(c, err)
		return
	}

	out, err := h.sessions.Register(c.Request.Context(), service.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Attributes: req.Metadata.toAttributes(),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	h.writeSessionCookies(c, out)
	msg := "Registered"
	if out.Session == nil {
		msg = "Registered. Verification pending"
	}
	RespondCreated(c, msg, authResponse(out))
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		HandleError(c, err)
		return
	}

	out, err := h.sessions.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	h.writeSessionCookies(c, out)
	RespondOK(c, "Logged in", authResponse(out))
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, ok := h.refreshToken(c)
	if !ok {
		return
	}

	out, err := h.sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		h.cookies.clearAccessCookie(c)
		HandleError(c, err)
		return
	}

	h.writeSessionCookies(c, out)
	RespondOK(c, "Session refreshed", authResponse(out))
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := requireEmptyBody(c); err != nil {
		HandleError(c, err)
		return
	}
	caller, err := middleware.GetIdentity(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	err = h.sessions.Logout(c.Request.Context(), service.LogoutInput{
		ExternalID:   caller.ID,
		AccessToken:  middleware.GetAccessToken(c),
		RefreshToken: h.cookies.refreshFromCookie(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	h.cookies.clearAccessCookie(c)
	h.cookies.clearRefreshCookie(c)
	RespondOK(c, "Logged out", nil)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	caller, err := middleware.GetIdentity(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	out, err := h.sessions.GetProfile(c.Request.Context(), caller)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, "Profile retrieved", ProfileResponse{User: out.Profile, ProfileComplete: out.ProfileComplete})
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	caller, err := middleware.GetIdentity(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	var req ProfileUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		HandleError(c, err)
		return
	}

	out, err := h.sessions.UpdateProfile(c.Request.Context(), caller, req.toAttributes())
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, "Profile updated", ProfileResponse{User: out.Profile, ProfileComplete: out.ProfileComplete})
}

// refreshToken reads the refresh token from the body, falling back to the
// refresh cookie. A binding failure has already been written when ok is false.
func (h *AuthHandler) refreshToken(c *gin.Context) (token string, ok bool) {
	var req RefreshRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		HandleError(c, err)
		return "", false
	}
	if t := strings.TrimSpace(req.RefreshToken); t != "" {
		return t, true
	}
	return strings.TrimSpace(h.cookies.refreshFromCookie(c)), true
}

func (h *AuthHandler) writeSessionCookies(c *gin.Context, out *service.AuthOutput) {
	h.cookies.clearAccessCookie(c)
	if out.Session != nil {
		h.cookies.setRefreshCookie(c, out.Session.RefreshToken, out.Session.RefreshExpiresIn)
	}
}

func authResponse(out *service.AuthOutput) AuthResponse {
	resp := AuthResponse{
		User:            out.Profile,
		ProfileComplete: out.ProfileComplete,
		IsNewUser:       out.IsNewUser,
	}
	if s := out.Session; s != nil {
		resp.Session = &SessionResponse{
			AccessToken:      s.AccessToken,
			ExpiresIn:        s.ExpiresIn,
			RefreshExpiresIn: s.RefreshExpiresIn,
			TokenType:        s.TokenType,
		}
	}
	return resp
}
