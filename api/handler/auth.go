package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/pixelbin/pixelbin/api/auth"
	"github.com/pixelbin/pixelbin/database"
)

// RegisterForm renders the registration form.
func (h *Handler) RegisterForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", "Register", gin.H{"Username": ""})
}

// Register creates a new account. A taken username redisplays the form with
// a visible message; on success the user is sent to the login page.
func (h *Handler) Register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if username == "" || password == "" {
		auth.Flash(c, "Username and password are required.")
		h.render(c, http.StatusBadRequest, "register.html", "Register", gin.H{"Username": username})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		auth.Flash(c, "Something went wrong, please try again.")
		h.render(c, http.StatusInternalServerError, "register.html", "Register", gin.H{"Username": username})
		return
	}

	// The unique index on username catches the duplicate atomically, no
	// pre-check needed.
	if _, err := h.db.CreateUser(c.Request.Context(), username, hash); err != nil {
		if errors.Is(err, database.ErrConflict) {
			auth.Flash(c, "Username already exists!")
			h.render(c, http.StatusConflict, "register.html", "Register", gin.H{"Username": username})
			return
		}
		auth.Flash(c, "Something went wrong, please try again.")
		h.render(c, http.StatusInternalServerError, "register.html", "Register", gin.H{"Username": username})
		return
	}

	auth.Flash(c, "Registration successful! Please login.")
	c.Redirect(http.StatusFound, "/login")
}

// LoginForm renders the login form.
func (h *Handler) LoginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", "Login", gin.H{"Username": ""})
}

// Login verifies the credentials and establishes the session.
// Unknown users and wrong passwords get the same message.
func (h *Handler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	user, err := h.db.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Error("failed to look up user during login", "error", err)
		}
		auth.Flash(c, "Invalid username or password")
		h.render(c, http.StatusUnauthorized, "login.html", "Login", gin.H{"Username": username})
		return
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		auth.Flash(c, "Invalid username or password")
		h.render(c, http.StatusUnauthorized, "login.html", "Login", gin.H{"Username": username})
		return
	}

	if err := auth.Login(c, user); err != nil {
		log.Error("failed to establish session", "error", err)
		auth.Flash(c, "Something went wrong, please try again.")
		h.render(c, http.StatusInternalServerError, "login.html", "Login", gin.H{"Username": username})
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// Logout clears the session and redirects to the listing.
func (h *Handler) Logout(c *gin.Context) {
	if err := auth.Logout(c); err != nil {
		log.Error("failed to clear session", "error", err)
	}
	c.Redirect(http.StatusFound, "/")
}
