package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// User represents a registered account.
// PasswordHash always holds a bcrypt hash, never a plaintext password.
// Whether a user is logged in is tracked in the session, not here.
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

// CreateUser inserts a new user. Returns ErrConflict if the username is taken.
func (d *DB) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	user := User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := d.db.WithContext(ctx).Create(&user).Error; err != nil {
		err = translateError(err)
		if err != ErrConflict {
			log.Error("failed to create user", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername returns the user with the given username or ErrNotFound.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := d.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			log.Error("failed to get user by username", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns the user with the given id or ErrNotFound.
func (d *DB) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := d.db.WithContext(ctx).First(&user, id).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			log.Error("failed to get user by id", "error", err)
		}
		return nil, err
	}
	return &user, nil
}
