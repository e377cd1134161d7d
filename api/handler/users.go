package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/terpworks/campusevents/api/auth"
	"github.com/terpworks/campusevents/api/models"
	"github.com/terpworks/campusevents/database"
)

// profileForm is the profile update payload. Absent fields leave the stored
// value untouched. There is no username field: the username is the external
// identity and never changes.
type profileForm struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Email         *string `json:"email"`
	Major         *string `json:"major"`
	ClassStanding *string `json:"classStanding"`
}

// Profile handles GET /profile for the signed-in user.
func (h *Handler) Profile(c *gin.Context) {
	user := auth.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"user":     models.FromUser(user, h.gravatarCfg),
	})
}

// UpdateProfile handles POST /profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var form profileForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.UpdateUser(c.Request.Context(), auth.CurrentUsername(c), database.UserPatch{
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		Email:         form.Email,
		Major:         form.Major,
		ClassStanding: form.ClassStanding,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.FromUser(user, h.gravatarCfg))
}

// DownloadResume handles GET /download_resume for the signed-in user.
func (h *Handler) DownloadResume(c *gin.Context) {
	user := auth.CurrentUser(c)
	if user.ResumeRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no resume on file"})
		return
	}
	c.FileAttachment(user.ResumeRef, filepath.Base(user.ResumeRef))
}

// ListUsers handles GET /users for administrators.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": auth.CurrentUsername(c),
		"users":    models.FromUsers(users, h.gravatarCfg),
	})
}

// Adminify handles POST /users/:username/adminify, granting the admin role.
func (h *Handler) Adminify(c *gin.Context) {
	h.setAdmin(c, true)
}

// UnAdminify handles POST /users/:username/unadminify, revoking the admin
// role.
func (h *Handler) UnAdminify(c *gin.Context) {
	h.setAdmin(c, false)
}

func (h *Handler) setAdmin(c *gin.Context, admin bool) {
	username := c.Param("username")
	user, err := h.db.SetAdmin(c.Request.Context(), username, admin)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	log.Info("admin role changed", "username", username, "admin", admin, "by", auth.CurrentUsername(c))
	c.JSON(http.StatusOK, models.FromUser(user, h.gravatarCfg))
}
