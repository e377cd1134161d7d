package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/terpworks/campusevents/api/auth"
	"github.com/terpworks/campusevents/api/handler"
	"github.com/terpworks/campusevents/cache"
	"github.com/terpworks/campusevents/config"
	"github.com/terpworks/campusevents/database"
)

// Server wires the middleware pipeline and routes. The pipeline order is
// explicit: request id, gzip, session, session renewal, then the per-route
// authorization gate.
type Server struct {
	cfg         *config.Config
	ginEngine   *gin.Engine
	db          *database.Client
	provider    auth.Provider
	gate        *auth.Gate
	provisioner *auth.Provisioner
	caches      *cache.Caches
}

// New creates the API server.
func New(ctx context.Context, cfg *config.Config, db *database.Client, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	provider, err := auth.NewProvider(ctx, cfg, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	caches, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	var emailDomain string
	if cfg.Auth.CAS != nil {
		emailDomain = cfg.Auth.CAS.EmailDomain
	}

	return &Server{
		cfg:         cfg,
		ginEngine:   gin.New(),
		db:          db,
		provider:    provider,
		gate:        auth.NewGate(db),
		provisioner: auth.NewProvisioner(db, emailDomain),
		caches:      caches,
	}, nil
}

func (s *Server) setupMiddleware() {
	s.ginEngine.Use(gin.Recovery())
	s.ginEngine.Use(requestID())
	s.ginEngine.Use(requestLogger())
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))

	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   secureCookies(s.cfg.ServerURL),
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions("campusevents_session", store))
	s.ginEngine.Use(sessionRenewal(time.Duration(s.cfg.SessionRenewal) * time.Second))
}

func (s *Server) setupRoutes() {
	h := handler.New(s.db, s.caches, s.cfg.Gravatar)

	require := func(roles ...database.Role) gin.HandlerFunc {
		return auth.Require(s.gate, s.provisioner, roles...)
	}

	allSignedIn := []database.Role{database.RoleUser, database.RoleAdmin, database.RoleSuperuser}
	admins := []database.Role{database.RoleAdmin, database.RoleSuperuser}

	s.ginEngine.GET("/cas_login", s.provider.Login)
	s.ginEngine.GET("/oauth/callback", s.provider.Callback)
	s.ginEngine.GET("/logout", s.provider.Logout)

	s.ginEngine.GET("/", require(), h.Home)
	s.ginEngine.GET("/event/:id", require(), h.GetEvent)

	s.ginEngine.GET("/profile", require(allSignedIn...), h.Profile)
	s.ginEngine.POST("/profile", require(allSignedIn...), h.UpdateProfile)
	s.ginEngine.GET("/download_resume", require(database.RoleUser), h.DownloadResume)
	s.ginEngine.POST("/event/:id/rsvp", require(allSignedIn...), h.RSVP)
	s.ginEngine.POST("/event/:id/unrsvp", require(allSignedIn...), h.UnRSVP)

	s.ginEngine.GET("/create_event", require(admins...), h.NewEventForm)
	s.ginEngine.POST("/event", require(admins...), h.CreateEvent)
	s.ginEngine.GET("/event/:id/edit", require(admins...), h.EditEventForm)
	s.ginEngine.GET("/event/:id/duplicate", require(admins...), h.DuplicateEventForm)
	s.ginEngine.POST("/event/:id/edit", require(admins...), h.UpdateEvent)
	s.ginEngine.POST("/event/:id/delete", require(admins...), h.DeleteEvent)
	s.ginEngine.GET("/users", require(admins...), h.ListUsers)
	s.ginEngine.GET("/admin/status", require(admins...), h.Status)

	s.ginEngine.POST("/users/:username/adminify", require(database.RoleSuperuser), h.Adminify)
	s.ginEngine.POST("/users/:username/unadminify", require(database.RoleSuperuser), h.UnAdminify)
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	s.setupMiddleware()
	s.setupRoutes()

	return s.ginEngine.Run(s.cfg.Listen)
}

// secureCookies marks session cookies Secure when the app is served over
// TLS, so they never travel over plain HTTP in production.
func secureCookies(serverURL string) bool {
	return strings.HasPrefix(serverURL, "https://")
}

// requestID tags every request with a unique id for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"),
		)
	}
}

// sessionRenewal re-saves the session cookie when the last renewal is older
// than the given interval, giving active users a sliding window inside the
// absolute session lifetime.
func sessionRenewal(interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		now := time.Now().Unix()
		last, _ := session.Get(auth.SessionKeyRenewed).(int64)
		if last == 0 || now-last >= int64(interval.Seconds()) {
			session.Set(auth.SessionKeyRenewed, now)
			if err := session.Save(); err != nil {
				log.Warn("failed to renew session", "error", err)
			}
		}
		c.Next()
	}
}
