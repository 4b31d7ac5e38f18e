package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Image represents an uploaded image.
// Filename is the storage key of the original file. Thumbnail is the storage
// key of the derived thumbnail and stays nil if generation failed.
// UserID is an explicit foreign key; callers that need the uploader run a
// separate GetUserByID lookup.
type Image struct {
	gorm.Model
	Filename   string `gorm:"not null"`
	Thumbnail  *string
	CustomSlug *string   `gorm:"uniqueIndex"`
	UploadDate time.Time `gorm:"index;not null"`
	UserID     uint      `gorm:"not null"`
}

// CreateImage inserts a new image record. Returns ErrConflict if the custom
// slug is already claimed.
func (d *DB) CreateImage(ctx context.Context, img *Image) error {
	if img.UploadDate.IsZero() {
		img.UploadDate = time.Now().UTC()
	}
	if err := d.db.WithContext(ctx).Create(img).Error; err != nil {
		err = translateError(err)
		if err != ErrConflict {
			log.Error("failed to create image", "error", err)
		}
		return err
	}
	return nil
}

// GetImageByID returns the image with the given id or ErrNotFound.
func (d *DB) GetImageByID(ctx context.Context, id uint) (*Image, error) {
	var img Image
	if err := d.db.WithContext(ctx).First(&img, id).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			log.Error("failed to get image by id", "error", err)
		}
		return nil, err
	}
	return &img, nil
}

// GetImageBySlug returns the image claiming the given custom slug or ErrNotFound.
func (d *DB) GetImageBySlug(ctx context.Context, slug string) (*Image, error) {
	var img Image
	if err := d.db.WithContext(ctx).Where("custom_slug = ?", slug).First(&img).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			log.Error("failed to get image by slug", "error", err)
		}
		return nil, err
	}
	return &img, nil
}

// ListImages returns all images ordered by upload date, newest first.
func (d *DB) ListImages(ctx context.Context) ([]Image, error) {
	var images []Image
	if err := d.db.WithContext(ctx).Order("upload_date DESC").Find(&images).Error; err != nil {
		log.Error("failed to list images", "error", err)
		return nil, err
	}
	return images, nil
}
