package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/session"
)

const sessionKey = "session"

// Session attaches the shopper's session, issuing a new session cookie
// when the request has none or an unrecognizable one.
func Session(manager *session.Manager, cookieName string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
		}

		// Every visit pushes the cookie expiry forward.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, id, int(ttl.Seconds()), "/", "", gin.Mode() == gin.ReleaseMode, true)

		c.Set(sessionKey, manager.Get(c.Request.Context(), id))
		c.Next()
	}
}

func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}
