package models

import (
	"github.com/dustin/go-humanize"
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
	"github.com/terpworks/campusevents/config"
	"github.com/terpworks/campusevents/database"
	"github.com/terpworks/campusevents/gravatar"
)

// FromUser converts a database user into its view model.
func FromUser(u *database.User, gravatarCfg *config.GravatarConfig) User {
	return User{
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Roles:         u.Roles,
		Major:         u.Major,
		ClassStanding: u.ClassStanding,
		HasResume:     u.ResumeRef != "",
		GravatarURL:   gravatar.GenerateURL(u.Email, gravatarCfg),
		LastLogin:     u.LastLogin,
	}
}

// FromUsers converts a slice of database users.
func FromUsers(users []database.User, gravatarCfg *config.GravatarConfig) []User {
	return lo.Map(users, func(u database.User, _ int) User {
		return FromUser(&u, gravatarCfg)
	})
}

// FromEvent converts a database event into its view model. StartsIn and
// Updated carry human-readable forms for display.
func FromEvent(e *database.Event) Event {
	return Event{
		ID:                e.ID,
		Name:              e.Name,
		Description:       e.Description,
		Location:          e.Location,
		Photo:             e.Photo,
		StartTime:         e.StartTime,
		EndTime:           e.EndTime,
		StartsIn:          timediff.TimeDiff(e.StartTime),
		Sponsors:          e.Sponsors,
		RSVPUsers:         e.RSVPUsers,
		RSVPCount:         len(e.RSVPUsers),
		RSVPLimit:         e.RSVPLimit,
		MajorRestrictions: e.MajorRestrictions,
		ClassRestriction:  e.ClassRestriction,
		Tags:              e.Tags,
		CreatedBy:         e.CreatedBy,
		Updated:           humanize.Time(e.UpdatedAt),
	}
}

// FromEvents converts a slice of database events.
func FromEvents(events []database.Event) []Event {
	return lo.Map(events, func(e database.Event, _ int) Event {
		return FromEvent(&e)
	})
}
