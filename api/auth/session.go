package auth

import (
	"github.com/gin-contrib/sessions"
)

// Session keys. The session only ever carries the external identity and a
// couple of transient values, never the user record itself.
const (
	SessionKeyUsername = "cas_username"
	SessionKeyEmail    = "cas_email"
	SessionKeyReturnTo = "return_to"
	SessionKeyRenewed  = "renewed_at"
)

// Context keys set by the gate middleware for downstream handlers.
const (
	ContextUser     = "user"
	ContextUsername = "username"
)

// FlashKeyWarning is the flash category for authorization warnings.
const FlashKeyWarning = "danger"

func getSessionString(session sessions.Session, key string) string {
	if value, ok := session.Get(key).(string); ok {
		return value
	}
	return ""
}
