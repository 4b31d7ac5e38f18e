package auth

import (
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/pixelbin/pixelbin/database"
)

// Session keys.
const (
	sessionKeyUserID   = "user_id"
	sessionKeyUsername = "user_username"
)

// Gin context keys set by RequireAuth.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
)

// Login binds the cookie session to the given user.
func Login(c *gin.Context, user *database.User) error {
	session := sessions.Default(c)
	session.Set(sessionKeyUserID, user.ID)
	session.Set(sessionKeyUsername, user.Username)
	return session.Save()
}

// Logout clears the session.
func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}

// CurrentUserID returns the id of the logged-in user, or false if the
// request carries no authenticated session.
func CurrentUserID(c *gin.Context) (uint, bool) {
	session := sessions.Default(c)
	id, ok := session.Get(sessionKeyUserID).(uint)
	return id, ok
}

// CurrentUsername returns the username stored in the session, if any.
func CurrentUsername(c *gin.Context) (string, bool) {
	session := sessions.Default(c)
	name, ok := session.Get(sessionKeyUsername).(string)
	return name, ok
}

// Flash queues a message to show the user on the next rendered page.
func Flash(c *gin.Context, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg)
	if err := session.Save(); err != nil {
		log.Error("failed to save flash message", "error", err)
	}
}

// TakeFlashes returns and clears all queued flash messages.
func TakeFlashes(c *gin.Context) []string {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		log.Error("failed to clear flash messages", "error", err)
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs
}
