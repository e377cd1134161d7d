package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`.+@.+\..+`)

// CreateUser persists a new user. The username must be unique; a concurrent
// first login for the same identity surfaces as ErrDuplicate.
func (c *Client) CreateUser(ctx context.Context, user *User) (*User, error) {
	if user.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if !emailPattern.MatchString(user.Email) {
		return nil, fmt.Errorf("%w: a valid email address is required", ErrValidation)
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		err = translate(err)
		if err != ErrDuplicate {
			log.Error("failed to create user", "username", user.Username, "error", err)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername looks up a user by the external SSO identity.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		err = translate(err)
		if err != ErrNotFound {
			log.Error("failed to get user by username", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// UpdateUser applies the patch to the stored user and returns the persisted
// result. The updated timestamp is stamped on every call, including the empty
// patch. The username is never mutated.
func (c *Client) UpdateUser(ctx context.Context, username string, patch UserPatch) (*User, error) {
	if patch.Email != nil && !emailPattern.MatchString(*patch.Email) {
		return nil, fmt.Errorf("%w: a valid email address is required", ErrValidation)
	}

	var user User
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return err
		}
		patch.apply(&user)
		user.UpdatedAt = time.Now()
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SetAdmin grants or revokes the admin role, leaving the other flags alone.
func (c *Client) SetAdmin(ctx context.Context, username string, admin bool) (*User, error) {
	var user User
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return err
		}
		user.Roles.Admin = admin
		user.UpdatedAt = time.Now()
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SetSuperuser grants or revokes the superuser role.
func (c *Client) SetSuperuser(ctx context.Context, username string, superuser bool) (*User, error) {
	var user User
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return err
		}
		user.Roles.Superuser = superuser
		user.UpdatedAt = time.Now()
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// TouchLastLogin records a successful sign-in.
func (c *Client) TouchLastLogin(ctx context.Context, username string) error {
	now := time.Now()
	res := c.db.WithContext(ctx).Model(&User{}).
		Where("username = ?", username).
		Update("last_login", now)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}
