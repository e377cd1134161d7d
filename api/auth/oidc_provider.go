package auth

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/terpworks/campusevents/config"
	"golang.org/x/oauth2"
)

const sessionKeyOAuthState = "oauth_state"

// OIDCProvider authenticates against an OpenID Connect issuer. It is the
// secondary provider for deployments without a campus CAS server.
type OIDCProvider struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
	cfg      *config.OIDCConfig
	store    Store
}

// NewOIDCProvider creates an OIDC provider from the issuer's discovery
// document.
func NewOIDCProvider(ctx context.Context, cfg *config.OIDCConfig, store Store) (*OIDCProvider, error) {
	p := OIDCProvider{
		cfg:   cfg,
		store: store,
	}
	var err error
	p.provider, err = oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	p.config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     p.provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	p.verifier = p.provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return &p, nil
}

// Login redirects to the issuer's authorization endpoint.
func (p *OIDCProvider) Login(c *gin.Context) {
	state := uuid.New().String()
	session := sessions.Default(c)
	session.Set(sessionKeyOAuthState, state)
	if err := session.Save(); err != nil {
		log.Error("failed to save session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		return
	}
	c.Redirect(http.StatusFound, p.config.AuthCodeURL(state))
}

// Callback exchanges the authorization code, verifies the ID token and
// writes the external username into the session.
func (p *OIDCProvider) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	if c.Query("state") != getSessionString(session, sessionKeyOAuthState) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign-in failed"})
		return
	}

	oauth2Token, err := p.config.Exchange(ctx, c.Query("code"))
	if err != nil {
		log.Error("OIDC code exchange failed", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign-in failed"})
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign-in failed"})
		return
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Error("OIDC token verification failed", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign-in failed"})
		return
	}

	var claims struct {
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
		Sub               string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		log.Error("failed to parse OIDC claims", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign-in failed"})
		return
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Sub
	}

	session.Delete(sessionKeyOAuthState)
	session.Set(SessionKeyUsername, username)
	if claims.Email != "" {
		session.Set(SessionKeyEmail, claims.Email)
	}

	returnTo := getSessionString(session, SessionKeyReturnTo)
	session.Delete(SessionKeyReturnTo)
	if err := session.Save(); err != nil {
		log.Error("failed to save session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		return
	}

	if err := p.store.TouchLastLogin(ctx, username); err != nil {
		log.Warn("failed to record last login", "username", username, "error", err)
	}

	if returnTo == "" {
		returnTo = "/"
	}
	c.Redirect(http.StatusFound, returnTo)
}

// Logout clears the session. OIDC RP-initiated logout is not wired, the
// session is simply destroyed locally.
func (p *OIDCProvider) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Error("failed to clear session", "error", err)
	}
	c.Redirect(http.StatusFound, "/")
}
