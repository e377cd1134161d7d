package auth

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/terpworks/campusevents/config"
)

// Provider is the bridge to the external identity service. It writes the
// stable external username into the session and never stores credentials.
type Provider interface {
	// Login starts (or, for CAS, also completes) the sign-in flow.
	Login(c *gin.Context)

	// Callback handles the provider's redirect back, where applicable.
	Callback(c *gin.Context)

	// Logout destroys the session and signs the user out of the provider.
	Logout(c *gin.Context)
}

// NewProvider creates the configured identity provider. CAS takes precedence
// when both are enabled.
func NewProvider(ctx context.Context, cfg *config.Config, store Store) (Provider, error) {
	if cfg.Auth == nil {
		return nil, fmt.Errorf("auth config is required")
	}

	if cfg.Auth.CAS != nil && cfg.Auth.CAS.Enabled {
		return NewCASProvider(cfg.Auth.CAS, cfg.ServerURL, store)
	}

	if cfg.Auth.OIDC != nil && cfg.Auth.OIDC.Enabled {
		return NewOIDCProvider(ctx, cfg.Auth.OIDC, store)
	}

	return nil, fmt.Errorf("no authentication provider is enabled")
}
