package database

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// EventSearch narrows the event listing. Text matches against the event name,
// Tags requires every given tag to be present on the event.
type EventSearch struct {
	Text string
	Tags []string
}

// CreateEvent persists a new event. The RSVP list always starts empty,
// whatever the caller submitted.
func (c *Client) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	if event.Name == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrValidation)
	}
	if event.Location == "" {
		return nil, fmt.Errorf("%w: event location is required", ErrValidation)
	}
	if event.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: event start time is required", ErrValidation)
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.RSVPUsers = []string{}

	if err := c.db.WithContext(ctx).Create(event).Error; err != nil {
		log.Error("failed to create event", "name", event.Name, "error", err)
		return nil, translate(err)
	}
	return event, nil
}

// GetEvent looks up a single event by id.
func (c *Client) GetEvent(ctx context.Context, id uint) (*Event, error) {
	var event Event
	if err := c.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// SearchEvents returns events matching the search, sorted by start time.
// The tag filter keeps only events carrying every requested tag.
func (c *Client) SearchEvents(ctx context.Context, search EventSearch) ([]Event, error) {
	q := c.db.WithContext(ctx).Order("start_time")
	if search.Text != "" {
		q = q.Where("name LIKE ?", "%"+search.Text+"%")
	}

	var events []Event
	if err := q.Find(&events).Error; err != nil {
		return nil, translate(err)
	}

	if len(search.Tags) > 0 {
		events = lo.Filter(events, func(e Event, _ int) bool {
			return lo.Every(e.Tags, search.Tags)
		})
	}
	return events, nil
}

// ListTags returns the unique set of tags across all events.
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	var events []Event
	if err := c.db.WithContext(ctx).Select("tags").Find(&events).Error; err != nil {
		return nil, translate(err)
	}
	tags := lo.Map(events, func(e Event, _ int) []string { return e.Tags })
	return lo.Uniq(lo.Flatten(tags)), nil
}

// UpdateEvent applies the patch to the stored event and returns the persisted
// result. Slice fields replace wholesale, the updated timestamp is stamped on
// every call.
func (c *Client) UpdateEvent(ctx context.Context, id uint, patch EventPatch) (*Event, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrValidation)
	}
	if patch.Location != nil && *patch.Location == "" {
		return nil, fmt.Errorf("%w: event location is required", ErrValidation)
	}

	var event Event
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, id).Error; err != nil {
			return err
		}
		patch.apply(&event)
		event.UpdatedAt = time.Now()
		return tx.Save(&event).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// DeleteEvent removes the event unconditionally. There is no tombstone.
func (c *Client) DeleteEvent(ctx context.Context, id uint) error {
	res := c.db.WithContext(ctx).Delete(&Event{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddRSVP appends the username to the event's RSVP list and stamps the
// updated timestamp. The append is unconditional: neither the RSVP limit nor
// the major/class restrictions are enforced, and duplicates are possible.
// The read and write run in one transaction so concurrent RSVPs don't lose
// each other's entries.
func (c *Client) AddRSVP(ctx context.Context, id uint, username string) (*Event, error) {
	var event Event
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, id).Error; err != nil {
			return err
		}
		event.RSVPUsers = append(event.RSVPUsers, username)
		event.UpdatedAt = time.Now()
		return tx.Save(&event).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// RemoveRSVP removes every occurrence of the username from the event's RSVP
// list and stamps the updated timestamp.
func (c *Client) RemoveRSVP(ctx context.Context, id uint, username string) (*Event, error) {
	var event Event
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, id).Error; err != nil {
			return err
		}
		event.RSVPUsers = lo.Filter(event.RSVPUsers, func(u string, _ int) bool {
			return u != username
		})
		event.UpdatedAt = time.Now()
		return tx.Save(&event).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}
