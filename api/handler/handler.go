package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/terpworks/campusevents/api/auth"
	"github.com/terpworks/campusevents/api/models"
	"github.com/terpworks/campusevents/cache"
	"github.com/terpworks/campusevents/config"
	"github.com/terpworks/campusevents/database"
)

const cacheKeyAll = "all"

// Handler serves the HTTP routes. Event listings go through the cache layer,
// user records never do.
type Handler struct {
	db          *database.Client
	caches      *cache.Caches
	gravatarCfg *config.GravatarConfig
}

// New creates a new handler.
func New(db *database.Client, caches *cache.Caches, gravatarCfg *config.GravatarConfig) *Handler {
	return &Handler{
		db:          db,
		caches:      caches,
		gravatarCfg: gravatarCfg,
	}
}

// Home lists events, optionally filtered by free-text name search (?text=)
// and tags (?tags=a,b). The route is public: anonymous visitors see the same
// listing, signed-in visitors additionally get their username echoed back.
// Only the unfiltered listing and the tag cloud are cached.
func (h *Handler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	search := database.EventSearch{Text: c.Query("text")}
	if tags := c.Query("tags"); tags != "" {
		search.Tags = splitCSV(tags)
	}
	filtered := search.Text != "" || len(search.Tags) > 0

	var events []database.Event
	var err error
	if !filtered {
		if cached, cacheErr := h.caches.Events.Get(ctx, cacheKeyAll); cacheErr == nil {
			events = cached
		}
	}
	if events == nil {
		events, err = h.db.SearchEvents(ctx, search)
		if err != nil {
			log.Error("failed to search events", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to load events"})
			return
		}
		if !filtered {
			if err := h.caches.Events.Set(ctx, cacheKeyAll, events); err != nil {
				log.Warn("failed to cache events", "error", err)
			}
		}
	}

	if limit, ok := parseLimit(c); ok && limit < len(events) {
		events = events[:limit]
	}

	tags, err := h.tagCloud(c)
	if err != nil {
		log.Error("failed to load tags", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to load tags"})
		return
	}

	// One-shot warnings from denied authorization checks.
	flashes := lo.Map(session.Flashes(auth.FlashKeyWarning), func(f any, _ int) string {
		s, _ := f.(string)
		return s
	})
	if err := session.Save(); err != nil {
		log.Warn("failed to clear flashes", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"username": auth.CurrentUsername(c),
		"events":   models.FromEvents(events),
		"tags":     tags,
		"flashes":  flashes,
	})
}

func (h *Handler) tagCloud(c *gin.Context) ([]string, error) {
	ctx := c.Request.Context()
	if cached, err := h.caches.Tags.Get(ctx, cacheKeyAll); err == nil {
		return cached, nil
	}
	tags, err := h.db.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.caches.Tags.Set(ctx, cacheKeyAll, tags); err != nil {
		log.Warn("failed to cache tags", "error", err)
	}
	return tags, nil
}

// parseLimit reads the optional ?limit= query parameter.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, false
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed < 0 {
		return 0, false
	}
	limit, err := safecast.ToInt(parsed)
	if err != nil {
		return 0, false
	}
	return limit, true
}

func splitCSV(s string) []string {
	return lo.Filter(lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	}), func(p string, _ int) bool {
		return p != ""
	})
}
