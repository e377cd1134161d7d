package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terpworks/campusevents/api/auth"
	"github.com/terpworks/campusevents/cache"
	"github.com/terpworks/campusevents/config"
	"github.com/terpworks/campusevents/database"
)

// testEnv wires the full request path against a real temporary database:
// session middleware, the authorization gate and the handlers under test.
type testEnv struct {
	router *gin.Engine
	db     *database.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	caches, err := cache.New(&config.CacheConfig{Type: config.CacheTypeMemory, TTL: 60})
	require.NoError(t, err)

	h := New(db, caches, nil)
	gate := auth.NewGate(db)
	provisioner := auth.NewProvisioner(db, "umd.edu")
	gated := func(roles ...database.Role) gin.HandlerFunc {
		return auth.Require(gate, provisioner, roles...)
	}

	allSignedIn := []database.Role{database.RoleUser, database.RoleAdmin, database.RoleSuperuser}
	admins := []database.Role{database.RoleAdmin, database.RoleSuperuser}

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("secret"))))

	// sign-in helper standing in for the identity provider
	r.GET("/signin/:username", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(auth.SessionKeyUsername, c.Param("username"))
		if err := session.Save(); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	r.GET("/", gated(), h.Home)
	r.GET("/event/:id", gated(), h.GetEvent)
	r.GET("/profile", gated(allSignedIn...), h.Profile)
	r.POST("/profile", gated(allSignedIn...), h.UpdateProfile)
	r.GET("/download_resume", gated(database.RoleUser), h.DownloadResume)
	r.POST("/event/:id/rsvp", gated(allSignedIn...), h.RSVP)
	r.POST("/event/:id/unrsvp", gated(allSignedIn...), h.UnRSVP)
	r.GET("/create_event", gated(admins...), h.NewEventForm)
	r.POST("/event", gated(admins...), h.CreateEvent)
	r.GET("/event/:id/edit", gated(admins...), h.EditEventForm)
	r.GET("/event/:id/duplicate", gated(admins...), h.DuplicateEventForm)
	r.POST("/event/:id/edit", gated(admins...), h.UpdateEvent)
	r.POST("/event/:id/delete", gated(admins...), h.DeleteEvent)
	r.GET("/users", gated(admins...), h.ListUsers)
	r.POST("/users/:username/adminify", gated(database.RoleSuperuser), h.Adminify)
	r.POST("/users/:username/unadminify", gated(database.RoleSuperuser), h.UnAdminify)

	return &testEnv{router: r, db: db}
}

// addUser seeds a user record directly in the database.
func (e *testEnv) addUser(t *testing.T, username string, roles database.Roles) *database.User {
	t.Helper()
	user, err := e.db.CreateUser(context.Background(), &database.User{
		Username: username,
		Email:    username + "@umd.edu",
		Roles:    roles,
	})
	require.NoError(t, err)
	return user
}

// addEvent seeds an event record directly in the database.
func (e *testEnv) addEvent(t *testing.T, event *database.Event) *database.Event {
	t.Helper()
	if event.StartTime.IsZero() {
		event.StartTime = time.Now().Add(time.Hour)
	}
	if event.Location == "" {
		event.Location = "Stamp Student Union"
	}
	created, err := e.db.CreateEvent(context.Background(), event)
	require.NoError(t, err)
	return created
}

// signIn establishes a session for the given username and returns its cookies.
func (e *testEnv) signIn(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/signin/"+username, nil)
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func (e *testEnv) do(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// mergeCookies replaces cookies by name so the freshest session state wins.
func mergeCookies(old, fresh []*http.Cookie) []*http.Cookie {
	merged := make([]*http.Cookie, 0, len(old)+len(fresh))
	for _, c := range old {
		replaced := false
		for _, f := range fresh {
			if f.Name == c.Name {
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, c)
		}
	}
	return append(merged, fresh...)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHome_AnonymousListing(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(t, &database.Event{Name: "Career Fair", Tags: []string{"career"}})
	env.addEvent(t, &database.Event{Name: "Hackathon", Tags: []string{"tech"}})

	w := env.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Empty(t, body["username"])
	assert.Len(t, body["events"], 2)
	assert.ElementsMatch(t, []any{"career", "tech"}, body["tags"])
}

func TestHome_TextFilter(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(t, &database.Event{Name: "Career Fair"})
	env.addEvent(t, &database.Event{Name: "Hackathon"})

	w := env.do(http.MethodGet, "/?text=career", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	require.Len(t, body["events"], 1)
	event := body["events"].([]any)[0].(map[string]any)
	assert.Equal(t, "Career Fair", event["name"])
}

func TestHome_TagFilterRequiresEveryTag(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(t, &database.Event{Name: "Workshop", Tags: []string{"tech", "free-food"}})
	env.addEvent(t, &database.Event{Name: "Seminar", Tags: []string{"tech"}})

	w := env.do(http.MethodGet, "/?tags=tech,free-food", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	require.Len(t, body["events"], 1)
	event := body["events"].([]any)[0].(map[string]any)
	assert.Equal(t, "Workshop", event["name"])
}

func TestHome_LimitTruncatesListing(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"One", "Two", "Three"} {
		env.addEvent(t, &database.Event{Name: name})
	}

	w := env.do(http.MethodGet, "/?limit=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeJSON(t, w)["events"], 2)
}

func TestHome_SignedInUsernameEchoed(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.signIn(t, "alice")

	w := env.do(http.MethodGet, "/", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decodeJSON(t, w)["username"])
}

func TestHome_FlashShownOnceAfterDeniedAccess(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", database.Roles{User: true})
	cookies := env.signIn(t, "alice")

	// plain user hits an admin route
	w := env.do(http.MethodGet, "/users", nil, cookies)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
	cookies = mergeCookies(cookies, w.Result().Cookies())

	w = env.do(http.MethodGet, "/", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeJSON(t, w)["flashes"])
	cookies = mergeCookies(cookies, w.Result().Cookies())

	// consumed: a second load shows nothing
	w = env.do(http.MethodGet, "/", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeJSON(t, w)["flashes"])
}
