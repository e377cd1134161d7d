package auth

import (
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/terpworks/campusevents/config"
	cas "gopkg.in/cas.v2"
)

// CASProvider authenticates against a campus CAS server. The service ticket
// round-trip both starts and finishes on the login route: CAS redirects back
// to it with a ticket query parameter.
type CASProvider struct {
	cfg        *config.CASConfig
	casURL     *url.URL
	serviceURL *url.URL
	validator  *cas.ServiceTicketValidator
	store      Store
}

// NewCASProvider creates a CAS provider. serverURL is this application's
// externally reachable base URL, from which the service URL is derived.
func NewCASProvider(cfg *config.CASConfig, serverURL string, store Store) (*CASProvider, error) {
	casURL, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	serviceURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	serviceURL = serviceURL.JoinPath(LoginPath)

	return &CASProvider{
		cfg:        cfg,
		casURL:     casURL,
		serviceURL: serviceURL,
		validator:  cas.NewServiceTicketValidator(http.DefaultClient, casURL),
		store:      store,
	}, nil
}

// Login redirects to the CAS sign-in page when no ticket is present, and
// validates the ticket when CAS sends the user back.
func (p *CASProvider) Login(c *gin.Context) {
	ticket := c.Query("ticket")
	if ticket == "" {
		loginURL := *p.casURL
		loginURL = *loginURL.JoinPath("login")
		q := loginURL.Query()
		q.Set("service", p.serviceURL.String())
		loginURL.RawQuery = q.Encode()
		c.Redirect(http.StatusFound, loginURL.String())
		return
	}

	resp, err := p.validator.ValidateTicket(p.serviceURL, ticket)
	if err != nil {
		// Surfaced as a generic sign-in failure, never retried.
		log.Error("CAS ticket validation failed", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign-in failed"})
		return
	}

	session := sessions.Default(c)
	session.Set(SessionKeyUsername, resp.User)
	if email := resp.Attributes.Get("mail"); email != "" {
		session.Set(SessionKeyEmail, email)
	}

	returnTo := getSessionString(session, SessionKeyReturnTo)
	session.Delete(SessionKeyReturnTo)
	if err := session.Save(); err != nil {
		log.Error("failed to save session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		return
	}

	if err := p.store.TouchLastLogin(c.Request.Context(), resp.User); err != nil {
		log.Warn("failed to record last login", "username", resp.User, "error", err)
	}

	if returnTo == "" {
		returnTo = "/"
	}
	c.Redirect(http.StatusFound, returnTo)
}

// Callback is unused for CAS, the login route handles the return leg.
func (p *CASProvider) Callback(c *gin.Context) {
	p.Login(c)
}

// Logout destroys the session and signs the user out of CAS.
func (p *CASProvider) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Error("failed to clear session", "error", err)
	}

	logoutURL := *p.casURL
	logoutURL = *logoutURL.JoinPath("logout")
	q := logoutURL.Query()
	q.Set("service", p.serviceURL.String())
	logoutURL.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, logoutURL.String())
}
