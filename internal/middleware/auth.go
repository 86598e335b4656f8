package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"authbridge/internal/auth/bearer"
	"authbridge/internal/domain"
	"authbridge/internal/service"
)

const (
	ContextKeyIdentity    = "identity"
	ContextKeyAccessToken = "access_token"
	ContextKeyRequestID   = "request_id"
)

// AuthMiddleware resolves the caller's access token (Authorization header first,
// then the access cookie), verifies it with the identity provider and stores the
// external identity in the Gin context.
func AuthMiddleware(verifier service.SessionVerifier, accessCookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer.FromRequest(c.Request, accessCookie)

		ext, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err)
			return
		}

		c.Set(ContextKeyIdentity, ext)
		c.Set(ContextKeyAccessToken, token)
		c.Next()
	}
}

// GetIdentity extracts the verified external identity from the Gin context.
func GetIdentity(c *gin.Context) (*domain.ExternalIdentity, error) {
	val, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return nil, domain.ErrMissingContext
	}
	ext, ok := val.(*domain.ExternalIdentity)
	if !ok || ext == nil {
		return nil, domain.ErrMissingContext
	}
	return ext, nil
}

// GetAccessToken returns the access token the caller authenticated with.
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ContextKeyAccessToken)
}

func abortWithError(c *gin.Context, status int, err error) {
	code, msg := "UNAUTHORIZED", "Unauthorized"
	var de *domain.Error
	if errors.As(err, &de) {
		code, msg = de.Code, de.Message
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": msg,
		"code":    code,
	})
}
