package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/domain/entity"
)

// DefaultUserInfoURL is Google's OpenID Connect userinfo endpoint
const DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleConfig configures the Google sign-in client
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overrides for tests; zero values use Google's endpoints
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// GoogleProvider implements port.IdentityProvider against Google OAuth 2.0
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
	logger      *zap.Logger
}

// NewGoogleProvider creates a new Google identity provider
func NewGoogleProvider(cfg GoogleConfig, logger *zap.Logger) *GoogleProvider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = endpoints.Google
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email"},
		},
		userInfoURL: userInfoURL,
		logger:      logger,
	}
}

// NewVerifier returns a fresh PKCE code verifier
func (p *GoogleProvider) NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL builds the consent URL carrying state and the S256 challenge
func (p *GoogleProvider) AuthCodeURL(state, verifier string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier))
}

type userInfo struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
}

// Exchange trades the authorization code for a token and returns the
// account's verified email address
func (p *GoogleProvider) Exchange(ctx context.Context, code, verifier string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: missing authorization code", entity.ErrIdentityFailed)
	}

	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		p.logger.Warn("OAuth code exchange failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", entity.ErrIdentityFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: userinfo: %w", entity.ErrIdentityFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: userinfo returned status %d", entity.ErrIdentityFailed, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("%w: decode userinfo: %w", entity.ErrIdentityFailed, err)
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))
	if email == "" {
		return "", fmt.Errorf("%w: no email in userinfo", entity.ErrIdentityFailed)
	}
	if info.EmailVerified != nil && !*info.EmailVerified {
		return "", fmt.Errorf("%w: email %s is not verified", entity.ErrIdentityFailed, email)
	}

	p.logger.Info("User signed in", zap.String("email", email))
	return email, nil
}

// Verify interface compliance
var _ port.IdentityProvider = (*GoogleProvider)(nil)
