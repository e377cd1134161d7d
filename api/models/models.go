package models

import (
	"time"

	"github.com/terpworks/campusevents/database"
)

// User is the view model for a campus user.
type User struct {
	Username      string         `json:"username"`
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	Email         string         `json:"email"`
	Roles         database.Roles `json:"roles"`
	Major         string         `json:"major"`
	ClassStanding string         `json:"classStanding"`
	HasResume     bool           `json:"hasResume"`
	GravatarURL   string         `json:"gravatarUrl,omitempty"`
	LastLogin     *time.Time     `json:"lastLogin,omitempty"`
}

// Event is the view model for a campus event.
type Event struct {
	ID                uint       `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	Location          string     `json:"location"`
	Photo             string     `json:"photo,omitempty"`
	StartTime         time.Time  `json:"startTime"`
	EndTime           *time.Time `json:"endTime,omitempty"`
	StartsIn          string     `json:"startsIn"`
	Sponsors          []string   `json:"sponsors,omitempty"`
	RSVPUsers         []string   `json:"rsvpUsers"`
	RSVPCount         int        `json:"rsvpCount"`
	RSVPLimit         *int       `json:"rsvpLimit,omitempty"`
	MajorRestrictions []string   `json:"majorRestrictions,omitempty"`
	ClassRestriction  string     `json:"classRestriction,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	CreatedBy         string     `json:"createdBy,omitempty"`
	Updated           string     `json:"updated"`
}
