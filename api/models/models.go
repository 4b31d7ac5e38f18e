package models

import (
	"strconv"
	"time"
)

// User is the view model for the logged-in user.
type User struct {
	ID       uint
	Username string
}

// ImageItem is the view model for an uploaded image as shown on the
// listing and detail pages.
type ImageItem struct {
	ID         uint
	Filename   string
	Thumbnail  string // empty if thumbnail generation failed
	CustomSlug string // empty if no custom slug was claimed
	UploadDate time.Time
	Uploader   string // empty on the listing page, filled on the detail page
	Size       int64  // size of the original file in bytes, 0 if unknown
}

// URL returns the canonical detail-page path for the image.
func (i ImageItem) URL() string {
	return "/image/" + strconv.FormatUint(uint64(i.ID), 10)
}

// FileURL returns the path serving the original file bytes.
func (i ImageItem) FileURL() string {
	return "/uploads/" + i.Filename
}

// ThumbnailURL returns the path serving the thumbnail, falling back to the
// original when no thumbnail exists.
func (i ImageItem) ThumbnailURL() string {
	if i.Thumbnail == "" {
		return i.FileURL()
	}
	return "/uploads/" + i.Thumbnail
}

// ShareURL returns the short-link path if a custom slug was claimed.
func (i ImageItem) ShareURL() string {
	if i.CustomSlug == "" {
		return ""
	}
	return "/i/" + i.CustomSlug
}
