package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/terpworks/campusevents/database"
)

// Store is the slice of the database the auth layer needs. Every
// authorization check re-reads the user record, there is no caching in
// between.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (*database.User, error)
	CreateUser(ctx context.Context, user *database.User) (*database.User, error)
	TouchLastLogin(ctx context.Context, username string) error
}

// Decision is the outcome of an authorization check. Exactly one of the
// concrete types below is returned; callers consume it with a type switch.
type Decision interface {
	authDecision()
}

// Allow grants access. User is nil on the anonymous fast path (empty
// required-role set), where only the session username is carried through.
type Allow struct {
	Username string
	User     *database.User
}

// DenyRedirect sends the requester to the sign-in flow.
type DenyRedirect struct {
	Target string
}

// DenyForbidden refuses access for a signed-in user lacking the required
// roles. The message is flashed on the next rendered page.
type DenyForbidden struct {
	Message string
}

// NeedsProvisioning means the identity authenticated but no user record
// exists yet. The provisioning flow creates one.
type NeedsProvisioning struct {
	Username string
}

func (Allow) authDecision()             {}
func (DenyRedirect) authDecision()      {}
func (DenyForbidden) authDecision()     {}
func (NeedsProvisioning) authDecision() {}

// LoginPath is the redirect target for unauthenticated requests to
// role-gated routes.
const LoginPath = "/cas_login"

const forbiddenMessage = "Sorry, you have insufficient user privileges to access this page."

// Gate resolves a session identity plus a required-role set into a Decision.
type Gate struct {
	store Store
}

// NewGate creates a new authorization gate.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Authorize decides whether the given session identity may access a route
// requiring any of the given roles. An empty username means no identity is
// present in the session.
//
// An empty required set is the anonymous fast path: the request is allowed
// with whatever identity the session carries and the user record is never
// looked up, even for signed-in users. Public routes therefore only ever see
// the username, not the full user document.
func (g *Gate) Authorize(ctx context.Context, username string, required []database.Role) (Decision, error) {
	if len(required) == 0 {
		return Allow{Username: username}, nil
	}

	if username == "" {
		return DenyRedirect{Target: LoginPath}, nil
	}

	user, err := g.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return NeedsProvisioning{Username: username}, nil
		}
		return nil, fmt.Errorf("authorize %s: %w", username, err)
	}

	if user.Roles.HasAny(required) {
		return Allow{Username: user.Username, User: user}, nil
	}

	return DenyForbidden{Message: forbiddenMessage}, nil
}
