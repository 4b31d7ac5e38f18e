package handler

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/pixelbin/pixelbin/api/auth"
	"github.com/pixelbin/pixelbin/api/models"
	"github.com/pixelbin/pixelbin/database"
	"github.com/pixelbin/pixelbin/storage"
)

// allowedExtensions is the upload extension allow-list. Matching is
// case-insensitive and a missing extension is rejected.
var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

// allowedFile reports whether the filename carries an allowed extension.
func allowedFile(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return false
	}
	ext := strings.ToLower(filename[idx+1:])
	_, ok := allowedExtensions[ext]
	return ok
}

// Index lists all images, newest first. Public.
func (h *Handler) Index(c *gin.Context) {
	images, err := h.db.ListImages(c.Request.Context())
	if err != nil {
		h.render(c, http.StatusInternalServerError, "index.html", "Gallery", gin.H{"Images": nil})
		return
	}
	h.render(c, http.StatusOK, "index.html", "Gallery", gin.H{
		"Images": models.ImageItemsFromDB(images),
	})
}

// UploadForm renders the upload form. Requires auth.
func (h *Handler) UploadForm(c *gin.Context) {
	h.render(c, http.StatusOK, "upload.html", "Upload", gin.H{"CustomSlug": ""})
}

// Upload stores a new image. The duplicate-slug check runs before anything
// is written so a rejected slug never leaves a file behind; thumbnailing is
// best-effort and never fails the upload.
func (h *Handler) Upload(c *gin.Context) {
	userID := c.GetUint(auth.ContextKeyUserID)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		auth.Flash(c, "No file part")
		h.render(c, http.StatusBadRequest, "upload.html", "Upload", gin.H{"CustomSlug": c.PostForm("custom_slug")})
		return
	}
	if fileHeader.Filename == "" || fileHeader.Size == 0 {
		auth.Flash(c, "No selected file")
		h.render(c, http.StatusBadRequest, "upload.html", "Upload", gin.H{"CustomSlug": c.PostForm("custom_slug")})
		return
	}

	if !allowedFile(fileHeader.Filename) {
		auth.Flash(c, "File type not allowed. Use png, jpg, jpeg or gif.")
		h.render(c, http.StatusBadRequest, "upload.html", "Upload", gin.H{"CustomSlug": c.PostForm("custom_slug")})
		return
	}

	filename := storage.SanitizeFilename(fileHeader.Filename)
	if filename == "" || !allowedFile(filename) {
		auth.Flash(c, "Invalid filename")
		h.render(c, http.StatusBadRequest, "upload.html", "Upload", gin.H{"CustomSlug": c.PostForm("custom_slug")})
		return
	}

	// An empty slug field means no slug was requested.
	slug := strings.TrimSpace(c.PostForm("custom_slug"))
	if slug != "" {
		if _, err := h.db.GetImageBySlug(c.Request.Context(), slug); err == nil {
			auth.Flash(c, "Custom link already in use. Please choose another.")
			h.render(c, http.StatusConflict, "upload.html", "Upload", gin.H{"CustomSlug": slug})
			return
		} else if !errors.Is(err, database.ErrNotFound) {
			auth.Flash(c, "Something went wrong, please try again.")
			h.render(c, http.StatusInternalServerError, "upload.html", "Upload", gin.H{"CustomSlug": slug})
			return
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("failed to open uploaded file", "error", err)
		auth.Flash(c, "Something went wrong, please try again.")
		h.render(c, http.StatusInternalServerError, "upload.html", "Upload", gin.H{"CustomSlug": slug})
		return
	}
	defer src.Close()

	if err := h.store.Save(filename, src); err != nil {
		log.Error("failed to store uploaded file", "filename", filename, "error", err)
		auth.Flash(c, "Something went wrong, please try again.")
		h.render(c, http.StatusInternalServerError, "upload.html", "Upload", gin.H{"CustomSlug": slug})
		return
	}

	// Best-effort thumbnail. A decode failure is logged and the image record
	// keeps a nil thumbnail.
	var thumbName *string
	name := storage.ThumbPrefix + filename
	if err := h.thumbs.Generate(h.store.Path(filename), h.store.Path(name)); err != nil {
		log.Warn("failed to generate thumbnail", "filename", filename, "error", err)
	} else {
		thumbName = &name
	}

	img := &database.Image{
		Filename:   filename,
		Thumbnail:  thumbName,
		UploadDate: time.Now().UTC(),
		UserID:     userID,
	}
	if slug != "" {
		img.CustomSlug = &slug
	}

	if err := h.db.CreateImage(c.Request.Context(), img); err != nil {
		// Compensating cleanup so a failed insert doesn't orphan the files.
		h.cleanupStored(filename, thumbName)

		if errors.Is(err, database.ErrConflict) {
			// Lost a concurrent race for the slug.
			auth.Flash(c, "Custom link already in use. Please choose another.")
			h.render(c, http.StatusConflict, "upload.html", "Upload", gin.H{"CustomSlug": slug})
			return
		}
		auth.Flash(c, "Something went wrong, please try again.")
		h.render(c, http.StatusInternalServerError, "upload.html", "Upload", gin.H{"CustomSlug": slug})
		return
	}

	auth.Flash(c, "Image uploaded successfully!")
	c.Redirect(http.StatusFound, "/image/"+strconv.FormatUint(uint64(img.ID), 10))
}

func (h *Handler) cleanupStored(filename string, thumbName *string) {
	if err := h.store.Remove(filename); err != nil {
		log.Error("failed to remove stored file", "filename", filename, "error", err)
	}
	if thumbName != nil {
		if err := h.store.Remove(*thumbName); err != nil {
			log.Error("failed to remove thumbnail", "filename", *thumbName, "error", err)
		}
	}
}

// ServeFile streams a stored file by exact filename. Public.
func (h *Handler) ServeFile(c *gin.Context) {
	name := storage.SanitizeFilename(c.Param("filename"))
	if name == "" || !h.store.Exists(name) {
		h.notFound(c)
		return
	}
	c.File(h.store.Path(name))
}

// Detail renders the detail page for an image. Public.
func (h *Handler) Detail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		h.notFound(c)
		return
	}

	img, err := h.db.GetImageByID(c.Request.Context(), uint(id))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Error("failed to load image", "id", id, "error", err)
		}
		h.notFound(c)
		return
	}

	item := models.ImageItemFromDB(img)

	// Explicit join for the uploader, no back-reference on the model.
	if uploader, err := h.db.GetUserByID(c.Request.Context(), img.UserID); err == nil {
		item.Uploader = uploader.Username
	}
	if info, err := os.Stat(h.store.Path(img.Filename)); err == nil {
		item.Size = info.Size()
	}

	h.render(c, http.StatusOK, "detail.html", item.Filename, gin.H{
		"Image":     item,
		"ShareBase": h.cfg.ServerURL,
	})
}

// BySlug resolves a custom slug and streams the original file directly.
// This is the shareable short link, not a detail page. Public.
func (h *Handler) BySlug(c *gin.Context) {
	slug := c.Param("slug")

	img, err := h.db.GetImageBySlug(c.Request.Context(), slug)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Error("failed to resolve slug", "slug", slug, "error", err)
		}
		h.notFound(c)
		return
	}

	if !h.store.Exists(img.Filename) {
		h.notFound(c)
		return
	}
	c.File(h.store.Path(img.Filename))
}
