package models

import (
	"github.com/samber/lo"

	"github.com/pixelbin/pixelbin/database"
)

// ImageItemFromDB converts a database image into its view model.
func ImageItemFromDB(img *database.Image) ImageItem {
	item := ImageItem{
		ID:         img.ID,
		Filename:   img.Filename,
		UploadDate: img.UploadDate,
	}
	if img.Thumbnail != nil {
		item.Thumbnail = *img.Thumbnail
	}
	if img.CustomSlug != nil {
		item.CustomSlug = *img.CustomSlug
	}
	return item
}

// ImageItemsFromDB converts a slice of database images, preserving order.
func ImageItemsFromDB(images []database.Image) []ImageItem {
	return lo.Map(images, func(img database.Image, _ int) ImageItem {
		return ImageItemFromDB(&img)
	})
}

// UserFromDB converts a database user into its view model.
func UserFromDB(user *database.User) *User {
	if user == nil {
		return nil
	}
	return &User{
		ID:       user.ID,
		Username: user.Username,
	}
}
