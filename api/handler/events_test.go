package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terpworks/campusevents/database"
)

func TestCreateEvent_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", database.Roles{User: true})
	cookies := env.signIn(t, "alice")

	w := env.do(http.MethodPost, "/event", map[string]any{
		"name":      "Career Fair",
		"location":  "Stamp",
		"startTime": time.Now().Add(time.Hour),
	}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestCreateEvent_FirstLoginIsNotAdmin(t *testing.T) {
	env := newTestEnv(t)
	// no record for this identity yet; the gate provisions one in passing
	cookies := env.signIn(t, "stranger")

	w := env.do(http.MethodPost, "/event", map[string]any{
		"name":      "Career Fair",
		"location":  "Stamp",
		"startTime": time.Now().Add(time.Hour).Format(time.RFC3339),
	}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	events, err := env.db.SearchEvents(context.Background(), database.EventSearch{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCreateEvent_StampsCreator(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin", database.Roles{User: true, Admin: true})
	cookies := env.signIn(t, "admin")

	w := env.do(http.MethodPost, "/event", map[string]any{
		"name":      "Career Fair",
		"location":  "Stamp",
		"startTime": time.Now().Add(time.Hour).Format(time.RFC3339),
		"tags":      []string{"career"},
	}, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "admin", body["createdBy"])
	assert.Equal(t, "Career Fair", body["name"])
}

func TestCreateEvent_RejectsMissingName(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin", database.Roles{Admin: true})
	cookies := env.signIn(t, "admin")

	w := env.do(http.MethodPost, "/event", map[string]any{
		"location":  "Stamp",
		"startTime": time.Now().Add(time.Hour).Format(time.RFC3339),
	}, cookies)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEvent_PublicAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	event := env.addEvent(t, &database.Event{Name: "Hackathon"})

	w := env.do(http.MethodGet, fmt.Sprintf("/event/%d", event.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "Hackathon", body["event"].(map[string]any)["name"])

	w = env.do(http.MethodGet, "/event/9999", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/event/bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateEvent_PartialPatch(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin", database.Roles{Admin: true})
	cookies := env.signIn(t, "admin")
	event := env.addEvent(t, &database.Event{
		Name:     "Hackathon",
		Sponsors: []string{"ACM"},
		Tags:     []string{"tech"},
	})

	w := env.do(http.MethodPost, fmt.Sprintf("/event/%d/edit", event.ID), map[string]any{
		"tags": []string{"tech", "free-food"},
	}, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := env.db.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hackathon", updated.Name)
	assert.Equal(t, []string{"ACM"}, updated.Sponsors)
	assert.Equal(t, []string{"tech", "free-food"}, updated.Tags)
}

func TestDeleteEvent_RemovesRecord(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin", database.Roles{Admin: true})
	cookies := env.signIn(t, "admin")
	event := env.addEvent(t, &database.Event{Name: "Hackathon"})

	w := env.do(http.MethodPost, fmt.Sprintf("/event/%d/delete", event.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.db.GetEvent(context.Background(), event.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	w = env.do(http.MethodPost, fmt.Sprintf("/event/%d/delete", event.ID), nil, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDuplicateEventForm_ClearsIdentityAndRSVPs(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin", database.Roles{Admin: true})
	cookies := env.signIn(t, "admin")
	event := env.addEvent(t, &database.Event{Name: "Hackathon"})
	_, err := env.db.AddRSVP(context.Background(), event.ID, "alice")
	require.NoError(t, err)

	w := env.do(http.MethodGet, fmt.Sprintf("/event/%d/duplicate", event.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, true, body["duplicate"])
	view := body["event"].(map[string]any)
	assert.EqualValues(t, 0, view["id"])
	assert.Empty(t, view["rsvpUsers"])
	assert.Equal(t, "Hackathon", view["name"])
}

func TestRSVPFlow(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", database.Roles{User: true})
	cookies := env.signIn(t, "alice")
	event := env.addEvent(t, &database.Event{Name: "Hackathon"})

	w := env.do(http.MethodPost, fmt.Sprintf("/event/%d/rsvp", event.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeJSON(t, w)["rsvpCount"])

	// a second RSVP appends again, the handler does not dedupe
	w = env.do(http.MethodPost, fmt.Sprintf("/event/%d/rsvp", event.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeJSON(t, w)["rsvpCount"])

	// un-RSVP removes every entry
	w = env.do(http.MethodPost, fmt.Sprintf("/event/%d/unrsvp", event.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decodeJSON(t, w)["rsvpCount"])
}

func TestRSVP_RequiresSignIn(t *testing.T) {
	env := newTestEnv(t)
	event := env.addEvent(t, &database.Event{Name: "Hackathon"})

	w := env.do(http.MethodPost, fmt.Sprintf("/event/%d/rsvp", event.ID), nil, nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/cas_login", w.Header().Get("Location"))
}

func TestRSVP_UnknownEvent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", database.Roles{User: true})
	cookies := env.signIn(t, "alice")

	w := env.do(http.MethodPost, "/event/9999/rsvp", nil, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
