package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/terpworks/campusevents/api/auth"
	"github.com/terpworks/campusevents/api/models"
	"github.com/terpworks/campusevents/database"
)

// eventForm is the create payload. Times are RFC 3339.
type eventForm struct {
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Location          string     `json:"location"`
	Photo             string     `json:"photo"`
	StartTime         time.Time  `json:"startTime"`
	EndTime           *time.Time `json:"endTime"`
	Sponsors          []string   `json:"sponsors"`
	RSVPLimit         *int       `json:"rsvpLimit"`
	MajorRestrictions []string   `json:"majorRestrictions"`
	ClassRestriction  string     `json:"classRestriction"`
	LockoutTime       *int64     `json:"lockoutTime"`
	Tags              []string   `json:"tags"`
}

// eventPatchForm is the edit payload. Absent fields leave the stored value
// untouched, present slice fields replace the stored slice wholesale.
type eventPatchForm struct {
	Name              *string     `json:"name"`
	Description       *string     `json:"description"`
	Location          *string     `json:"location"`
	Photo             *string     `json:"photo"`
	StartTime         *time.Time  `json:"startTime"`
	EndTime           *time.Time  `json:"endTime"`
	Sponsors          *[]string   `json:"sponsors"`
	RSVPLimit         *int        `json:"rsvpLimit"`
	MajorRestrictions *[]string   `json:"majorRestrictions"`
	ClassRestriction  *string     `json:"classRestriction"`
	LockoutTime       *int64      `json:"lockoutTime"`
	Tags              *[]string   `json:"tags"`
}

func (f eventPatchForm) patch() database.EventPatch {
	return database.EventPatch{
		Name:              f.Name,
		Description:       f.Description,
		Location:          f.Location,
		Photo:             f.Photo,
		StartTime:         f.StartTime,
		EndTime:           f.EndTime,
		Sponsors:          f.Sponsors,
		RSVPLimit:         f.RSVPLimit,
		MajorRestrictions: f.MajorRestrictions,
		ClassRestriction:  f.ClassRestriction,
		LockoutTime:       f.LockoutTime,
		Tags:              f.Tags,
	}
}

// NewEventForm handles GET /create_event with a blank form payload.
func (h *Handler) NewEventForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"event":     models.Event{},
		"duplicate": false,
	})
}

// CreateEvent handles POST /event.
func (h *Handler) CreateEvent(c *gin.Context) {
	var form eventForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.db.CreateEvent(c.Request.Context(), &database.Event{
		Name:              form.Name,
		Description:       form.Description,
		Location:          form.Location,
		Photo:             form.Photo,
		StartTime:         form.StartTime,
		EndTime:           form.EndTime,
		Sponsors:          form.Sponsors,
		RSVPLimit:         form.RSVPLimit,
		MajorRestrictions: form.MajorRestrictions,
		ClassRestriction:  form.ClassRestriction,
		LockoutTime:       form.LockoutTime,
		Tags:              form.Tags,
		CreatedBy:         auth.CurrentUsername(c),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.caches.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, models.FromEvent(event))
}

// GetEvent handles GET /event/:id. Public route.
func (h *Handler) GetEvent(c *gin.Context) {
	event, ok := h.eventByParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": auth.CurrentUsername(c),
		"event":    models.FromEvent(event),
	})
}

// EditEventForm handles GET /event/:id/edit, serving the event for the edit
// form.
func (h *Handler) EditEventForm(c *gin.Context) {
	event, ok := h.eventByParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":     models.FromEvent(event),
		"duplicate": false,
	})
}

// DuplicateEventForm handles GET /event/:id/duplicate, serving the event as
// a template for a new one.
func (h *Handler) DuplicateEventForm(c *gin.Context) {
	event, ok := h.eventByParam(c)
	if !ok {
		return
	}
	view := models.FromEvent(event)
	view.ID = 0
	view.RSVPUsers = nil
	view.RSVPCount = 0
	c.JSON(http.StatusOK, gin.H{
		"event":     view,
		"duplicate": true,
	})
}

// UpdateEvent handles POST /event/:id/edit.
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	var form eventPatchForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.db.UpdateEvent(c.Request.Context(), id, form.patch())
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.caches.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, models.FromEvent(event))
}

// DeleteEvent handles POST /event/:id/delete. The removal is unconditional
// and final.
func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	if err := h.db.DeleteEvent(c.Request.Context(), id); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.caches.Invalidate(c.Request.Context())
	log.Info("event deleted", "id", id, "by", auth.CurrentUsername(c))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RSVP handles POST /event/:id/rsvp for the signed-in user.
func (h *Handler) RSVP(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	event, err := h.db.AddRSVP(c.Request.Context(), id, auth.CurrentUsername(c))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.caches.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, models.FromEvent(event))
}

// UnRSVP handles POST /event/:id/unrsvp, removing every RSVP entry of the
// signed-in user.
func (h *Handler) UnRSVP(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	event, err := h.db.RemoveRSVP(c.Request.Context(), id, auth.CurrentUsername(c))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.caches.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, models.FromEvent(event))
}

func (h *Handler) eventByParam(c *gin.Context) (*database.Event, bool) {
	id, ok := eventID(c)
	if !ok {
		return nil, false
	}
	event, err := h.db.GetEvent(c.Request.Context(), id)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}
	return event, true
}

func eventID(c *gin.Context) (uint, bool) {
	parsed, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return 0, false
	}
	id, err := safecast.ToUint(parsed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return 0, false
	}
	return id, true
}
