package database

import (
	"time"
)

// Role names a single capability.
type Role string

const (
	RoleUser      Role = "User"
	RoleAdmin     Role = "Admin"
	RoleSuperuser Role = "Superuser"
)

// Roles is the capability set attached to a user. The flags are not mutually
// exclusive, a user can hold any combination of them.
type Roles struct {
	User      bool `json:"user"`
	Admin     bool `json:"admin"`
	Superuser bool `json:"superuser"`
}

// HasAny reports whether any of the required roles is held. Matching is
// any-of: holding a single required role is enough.
func (r Roles) HasAny(required []Role) bool {
	for _, role := range required {
		switch role {
		case RoleUser:
			if r.User {
				return true
			}
		case RoleAdmin:
			if r.Admin {
				return true
			}
		case RoleSuperuser:
			if r.Superuser {
				return true
			}
		}
	}
	return false
}

// User represents a campus user. The username equals the external SSO
// identity, is the sole join key between session and user record, and is
// immutable after creation.
type User struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Username      string `gorm:"uniqueIndex;not null"`
	FirstName     string
	LastName      string
	Email         string `gorm:"not null"`
	Roles         Roles  `gorm:"embedded;embeddedPrefix:role_"`
	Major         string
	ClassStanding string
	ResumeRef     string
	LastLogin     *time.Time
}

// UserPatch is an explicit partial update for a user. Nil fields are left
// untouched, set fields overwrite. The username is deliberately not
// representable here.
type UserPatch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Major         *string
	ClassStanding *string
	ResumeRef     *string
	Roles         *Roles
}

func (p UserPatch) apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Major != nil {
		u.Major = *p.Major
	}
	if p.ClassStanding != nil {
		u.ClassStanding = *p.ClassStanding
	}
	if p.ResumeRef != nil {
		u.ResumeRef = *p.ResumeRef
	}
	if p.Roles != nil {
		u.Roles = *p.Roles
	}
}

// Event represents a campus event. RSVPUsers is an append-only membership
// list, mutated only through the RSVP operations. Eligibility fields
// (RSVPLimit, MajorRestrictions, ClassRestriction, LockoutTime) are declared
// data and are not enforced by the RSVP operations.
type Event struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name              string `gorm:"not null"`
	Description       string
	Location          string    `gorm:"not null"`
	Photo             string
	StartTime         time.Time `gorm:"not null;index"`
	EndTime           *time.Time
	Sponsors          []string `gorm:"serializer:json"`
	RSVPUsers         []string `gorm:"serializer:json"`
	RSVPLimit         *int
	MajorRestrictions []string `gorm:"serializer:json"`
	ClassRestriction  string
	LockoutTime       *int64
	Tags              []string `gorm:"serializer:json"`
	CreatedBy         string
}

// EventPatch is an explicit partial update for an event. Scalar fields
// overwrite, slice fields replace wholesale. RSVPUsers is owned by the RSVP
// operations and cannot be patched.
type EventPatch struct {
	Name              *string
	Description       *string
	Location          *string
	Photo             *string
	StartTime         *time.Time
	EndTime           *time.Time
	Sponsors          *[]string
	RSVPLimit         *int
	MajorRestrictions *[]string
	ClassRestriction  *string
	LockoutTime       *int64
	Tags              *[]string
}

func (p EventPatch) apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Photo != nil {
		e.Photo = *p.Photo
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = p.EndTime
	}
	if p.Sponsors != nil {
		e.Sponsors = *p.Sponsors
	}
	if p.RSVPLimit != nil {
		e.RSVPLimit = p.RSVPLimit
	}
	if p.MajorRestrictions != nil {
		e.MajorRestrictions = *p.MajorRestrictions
	}
	if p.ClassRestriction != nil {
		e.ClassRestriction = *p.ClassRestriction
	}
	if p.LockoutTime != nil {
		e.LockoutTime = p.LockoutTime
	}
	if p.Tags != nil {
		e.Tags = *p.Tags
	}
}
