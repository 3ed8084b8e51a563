package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/bqlens/internal/gcp"
	"github.com/timmy/bqlens/internal/logger"
	"github.com/timmy/bqlens/internal/repository"
)

// SessionCookie is the name of the login-session cookie.
const SessionCookie = "bqlens_session"

// Context keys set by SessionAuth for downstream handlers.
const (
	ContextToken   = "oauth_token"
	ContextSession = "session"
)

// SessionAuth resolves the session cookie into an OAuth access token,
// refreshing it through the OAuth helper when expired, and aborts with 401
// when the session is missing or dead.
func SessionAuth(sessions *repository.SessionRepository, oauth *gcp.OAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
			return
		}

		ctx := c.Request.Context()
		sess, err := sessions.Get(ctx, sessionID)
		if err != nil {
			logger.CtxError(ctx, "session lookup failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Session lookup failed"})
			return
		}
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired, log in again"})
			return
		}

		token := sess.Token
		if gcp.Expired(&token) && token.RefreshToken != "" {
			refreshed, err := oauth.Refresh(ctx, &token)
			if err != nil {
				logger.CtxWarn(ctx, "token refresh failed: %v", err)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token refresh failed, log in again"})
				return
			}
			token = *refreshed
			sess.Token = token
			if err := sessions.Set(ctx, sess); err != nil {
				logger.CtxWarn(ctx, "persisting refreshed token failed: %v", err)
			}
		}

		if sess.UserEmail != "" {
			c.Request = c.Request.WithContext(
				logger.WithField(ctx, logger.FieldUserEmail, sess.UserEmail))
		}
		c.Set(ContextToken, token.AccessToken)
		c.Set(ContextSession, sess)
		c.Next()
	}
}

// Token extracts the OAuth access token placed by SessionAuth.
func Token(c *gin.Context) string {
	if v, ok := c.Get(ContextToken); ok {
		if tok, ok := v.(string); ok {
			return tok
		}
	}
	return ""
}
