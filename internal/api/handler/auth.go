package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/timmy/bqlens/internal/api/middleware"
	"github.com/timmy/bqlens/internal/domain"
	"github.com/timmy/bqlens/internal/gcp"
	"github.com/timmy/bqlens/internal/logger"
	"github.com/timmy/bqlens/internal/repository"
)

// stateCookie carries the CSRF nonce between login and callback.
const stateCookie = "bqlens_oauth_state"

// AuthHandler runs the OAuth login flow and manages sessions.
type AuthHandler struct {
	oauth      *gcp.OAuth
	sessions   *repository.SessionRepository
	sessionTTL time.Duration
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(oauth *gcp.OAuth, sessions *repository.SessionRepository, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{oauth: oauth, sessions: sessions, sessionTTL: sessionTTL}
}

// Login handles GET /auth/login: redirects to the Google consent page.
func (h *AuthHandler) Login(c *gin.Context) {
	state := uuid.New().String()
	c.SetCookie(stateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.oauth.AuthURL(state))
}

// Callback handles GET /auth/callback: verifies the state nonce, exchanges
// the code, and opens a session.
func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "OAuth state mismatch"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		logger.CtxError(ctx, "code exchange failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Authorization failed: " + err.Error()})
		return
	}

	now := time.Now()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		Token:     *token,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(h.sessionTTL),
	}
	if err := h.sessions.Set(ctx, sess); err != nil {
		logger.CtxError(ctx, "session create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create session"})
		return
	}

	c.SetCookie(middleware.SessionCookie, sess.ID, int(h.sessionTTL.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// Logout handles POST /auth/logout: clears the session and its cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, err := c.Cookie(middleware.SessionCookie)
	if err == nil && sessionID != "" {
		if err := h.sessions.Clear(ctx, sessionID); err != nil {
			logger.CtxWarn(ctx, "session clear failed: %v", err)
		}
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
