package auth

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/terpworks/campusevents/database"
)

// Require returns middleware gating the route behind the given roles. The
// gate's Decision is consumed here: Allow populates the request context,
// DenyRedirect sends the requester to sign-in (remembering where they were
// headed), NeedsProvisioning creates the user record inline with defaults and
// re-checks the route's roles against them, and DenyForbidden flashes a
// warning and bounces to the index.
//
// An empty role list makes the route public; the session username is still
// passed through when present, but the user record is not loaded.
func Require(gate *Gate, provisioner *Provisioner, roles ...database.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		username := getSessionString(session, SessionKeyUsername)

		decision, err := gate.Authorize(c.Request.Context(), username, roles)
		if err != nil {
			log.Error("authorization failed", "username", username, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization failed"})
			return
		}

		switch d := decision.(type) {
		case Allow:
			c.Set(ContextUsername, d.Username)
			if d.User != nil {
				c.Set(ContextUser, d.User)
			}
			c.Next()

		case DenyRedirect:
			// Remember where the visitor was headed. A bounced POST can't be
			// replayed after sign-in, so send those back to the page they
			// came from when the referrer is known.
			target := c.Request.URL.Path
			if c.Request.Method != http.MethodGet {
				if ref := c.Request.Referer(); ref != "" {
					target = ref
				}
			}
			session.Set(SessionKeyReturnTo, target)
			if err := session.Save(); err != nil {
				log.Error("failed to save session", "error", err)
			}
			c.Redirect(http.StatusFound, d.Target)
			c.Abort()

		case NeedsProvisioning:
			// First login on a role-gated route: create the user record with
			// defaults, then re-check the route's roles against them. A fresh
			// user only holds the user role, so admin routes still bounce.
			user, err := provisioner.Provision(c.Request.Context(), d.Username, ProvisionForm{
				Email: getSessionString(session, SessionKeyEmail),
			})
			if err != nil {
				log.Error("provisioning failed", "username", d.Username, "error", err)
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if !user.Roles.HasAny(roles) {
				session.AddFlash(forbiddenMessage, FlashKeyWarning)
				if err := session.Save(); err != nil {
					log.Error("failed to save session", "error", err)
				}
				c.Redirect(http.StatusFound, "/")
				c.Abort()
				return
			}
			c.Set(ContextUsername, user.Username)
			c.Set(ContextUser, user)
			c.Next()

		case DenyForbidden:
			session.AddFlash(d.Message, FlashKeyWarning)
			if err := session.Save(); err != nil {
				log.Error("failed to save session", "error", err)
			}
			c.Redirect(http.StatusFound, "/")
			c.Abort()
		}
	}
}

// CurrentUser returns the user record the gate attached to the request, or
// nil on public routes.
func CurrentUser(c *gin.Context) *database.User {
	if user, ok := c.Get(ContextUser); ok {
		return user.(*database.User)
	}
	return nil
}

// CurrentUsername returns the session identity attached to the request,
// empty for anonymous requests.
func CurrentUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}
