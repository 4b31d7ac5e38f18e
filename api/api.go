package api

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pixelbin/pixelbin/api/auth"
	"github.com/pixelbin/pixelbin/api/handler"
	"github.com/pixelbin/pixelbin/config"
	"github.com/pixelbin/pixelbin/database"
	"github.com/pixelbin/pixelbin/storage"
	"github.com/pixelbin/pixelbin/thumbnail"
	"github.com/pixelbin/pixelbin/web"
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	db        *database.DB
	store     *storage.Store
}

func New(cfg *config.Config, db *database.DB, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.Default(),
		db:        db,
		store:     store,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) setupSession() error {
	key := s.cfg.Session.Key
	if key == "" {
		// Random per-process key: sessions won't survive a restart.
		key = uuid.NewString()
		log.Warn("generated a random session key, configure session.key to keep sessions across restarts")
	}

	store := cookie.NewStore([]byte(key))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions("pixelbin_session", store))
	return nil
}

func (s *Server) setupRoutes() error {
	if s.cfg.Gzip {
		// Stored images are already compressed, skip them.
		s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression,
			gzip.WithExcludedPaths([]string{"/uploads", "/i"})))
	}

	if err := s.setupSession(); err != nil {
		return err
	}

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.ginEngine.SetHTMLTemplate(tmpl)

	thumbs := thumbnail.New(s.cfg.Thumbnail.Width, s.cfg.Thumbnail.Height)
	h := handler.New(s.cfg, s.db, s.store, thumbs)

	s.ginEngine.GET("/", h.Index)
	s.ginEngine.GET("/register", h.RegisterForm)
	s.ginEngine.POST("/register", h.Register)
	s.ginEngine.GET("/login", h.LoginForm)
	s.ginEngine.POST("/login", h.Login)
	s.ginEngine.GET("/uploads/:filename", h.ServeFile)
	s.ginEngine.GET("/image/:id", h.Detail)
	s.ginEngine.GET("/i/:slug", h.BySlug)

	protected := s.ginEngine.Group("/")
	protected.Use(auth.RequireAuth())

	protected.GET("/logout", h.Logout)
	protected.GET("/upload", h.UploadForm)
	protected.POST("/upload", h.Upload)

	return nil
}

func (s *Server) Run() error {
	return s.ginEngine.Run(s.cfg.Listen)
}
