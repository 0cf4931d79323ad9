package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/application/service"
	"github.com/garyjia/quickquote/internal/domain/entity"
)

const (
	stateCookie    = "qq_oauth_state"
	verifierCookie = "qq_oauth_verifier"
	oauthCookieTTL = 600 // seconds
)

// AuthHandlers runs the sign-in flow
type AuthHandlers struct {
	identity port.IdentityProvider
	credits  service.CreditService
	sessions *SessionIssuer
	config   ServerConfig
	logger   Logger
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(
	identity port.IdentityProvider,
	credits service.CreditService,
	sessions *SessionIssuer,
	config ServerConfig,
	logger Logger,
) *AuthHandlers {
	return &AuthHandlers{
		identity: identity,
		credits:  credits,
		sessions: sessions,
		config:   config,
		logger:   logger,
	}
}

func (h *AuthHandlers) setCookie(c *gin.Context, name, value, path string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, path, "", h.config.CookieSecure, true)
}

// Login handles GET /auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	state := uuid.NewString()
	verifier := h.identity.NewVerifier()

	h.setCookie(c, stateCookie, state, "/auth", oauthCookieTTL)
	h.setCookie(c, verifierCookie, verifier, "/auth", oauthCookieTTL)

	c.Redirect(http.StatusFound, h.identity.AuthCodeURL(state, verifier))
}

// Callback handles GET /auth/callback
func (h *AuthHandlers) Callback(c *gin.Context) {
	wantState, err := c.Cookie(stateCookie)
	if err != nil || wantState == "" {
		respondError(c, entity.ErrIdentityFailed)
		return
	}
	gotState := c.Query("state")
	if subtle.ConstantTimeCompare([]byte(wantState), []byte(gotState)) != 1 {
		h.logger.Error("OAuth state mismatch", "client_ip", c.ClientIP())
		respondError(c, entity.ErrIdentityFailed)
		return
	}
	verifier, _ := c.Cookie(verifierCookie)

	h.setCookie(c, stateCookie, "", "/auth", -1)
	h.setCookie(c, verifierCookie, "", "/auth", -1)

	if errCode := c.Query("error"); errCode != "" {
		h.logger.Info("Sign-in cancelled", "error", errCode)
		respondError(c, entity.ErrIdentityFailed)
		return
	}

	email, err := h.identity.Exchange(c.Request.Context(), c.Query("code"), verifier)
	if err != nil {
		h.logger.Error("Sign-in failed", "error", err)
		respondError(c, err)
		return
	}

	// first sign-in grants the signup credits
	if _, err := h.credits.Account(c.Request.Context(), email); err != nil {
		respondError(c, err)
		return
	}

	token, session, err := h.sessions.Issue(email)
	if err != nil {
		h.logger.Error("Failed to issue session", "error", err, "email", email)
		respondError(c, err)
		return
	}
	h.setCookie(c, h.config.SessionCookie, token, "/", int(h.sessions.TTL().Seconds()))

	h.logger.Info("Session started", "email", email, "expires_at", session.ExpiresAt)
	c.Redirect(http.StatusFound, h.config.PostLoginRedirect)
}

// Logout handles POST /auth/logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	h.setCookie(c, h.config.SessionCookie, "", "/", -1)
	c.JSON(http.StatusOK, Response{Success: true})
}
