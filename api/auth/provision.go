package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/terpworks/campusevents/database"
)

// DefaultFieldValue fills major and class standing when a first login
// submits neither.
const DefaultFieldValue = "Undefined"

// ProvisionForm carries the optional profile fields a first login may
// submit. Anything left empty falls back to the provisioning defaults.
type ProvisionForm struct {
	FirstName     string
	LastName      string
	Email         string
	Major         string
	ClassStanding string
	Roles         *database.Roles
}

// Provisioner creates the user record the first time an authenticated
// external identity shows up without one.
type Provisioner struct {
	store       Store
	emailDomain string
}

// NewProvisioner creates a provisioner. When emailDomain is non-empty, a
// missing email is derived as {username}@{emailDomain}; otherwise the email
// must come from the form.
func NewProvisioner(store Store, emailDomain string) *Provisioner {
	return &Provisioner{store: store, emailDomain: emailDomain}
}

// Provision creates a new user for the given external identity, applying
// defaults for anything the form left out. Two concurrent first logins for
// the same identity cannot produce two records: the unique username index
// rejects the loser, which is recovered here by re-fetching the winner.
func (p *Provisioner) Provision(ctx context.Context, username string, form ProvisionForm) (*database.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", database.ErrValidation)
	}

	email := form.Email
	if email == "" && p.emailDomain != "" {
		email = username + "@" + p.emailDomain
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email could not be determined", database.ErrValidation)
	}

	major := form.Major
	if major == "" {
		major = DefaultFieldValue
	}
	classStanding := form.ClassStanding
	if classStanding == "" {
		classStanding = DefaultFieldValue
	}
	roles := database.Roles{User: true}
	if form.Roles != nil {
		roles = *form.Roles
	}

	user, err := p.store.CreateUser(ctx, &database.User{
		Username:      username,
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		Email:         email,
		Roles:         roles,
		Major:         major,
		ClassStanding: classStanding,
	})
	if err == nil {
		log.Info("provisioned first-time user", "username", username)
		return user, nil
	}
	if errors.Is(err, database.ErrDuplicate) {
		// Lost the race against a concurrent first login, the record exists now.
		return p.store.GetUserByUsername(ctx, username)
	}
	return nil, err
}
