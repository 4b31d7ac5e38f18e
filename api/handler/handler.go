package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelbin/pixelbin/api/auth"
	"github.com/pixelbin/pixelbin/api/models"
	"github.com/pixelbin/pixelbin/config"
	"github.com/pixelbin/pixelbin/database"
	"github.com/pixelbin/pixelbin/storage"
	"github.com/pixelbin/pixelbin/thumbnail"
)

type Handler struct {
	cfg    *config.Config
	db     *database.DB
	store  *storage.Store
	thumbs *thumbnail.Generator
}

func New(cfg *config.Config, db *database.DB, store *storage.Store, thumbs *thumbnail.Generator) *Handler {
	return &Handler{
		cfg:    cfg,
		db:     db,
		store:  store,
		thumbs: thumbs,
	}
}

// currentUser resolves the session identity into a view model, or nil for
// anonymous visitors. Used for the navigation bar on public pages.
func (h *Handler) currentUser(c *gin.Context) *models.User {
	id, ok := auth.CurrentUserID(c)
	if !ok {
		return nil
	}
	username, _ := auth.CurrentUsername(c)
	return &models.User{ID: id, Username: username}
}

// render renders an HTML page with the fields every template expects.
func (h *Handler) render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["User"] = h.currentUser(c)
	data["Flashes"] = auth.TakeFlashes(c)
	c.HTML(status, name, data)
}

// notFound renders the 404 page.
func (h *Handler) notFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "notfound.html", "Not found", nil)
}
