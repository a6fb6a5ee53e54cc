package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	chat "go-chatline/internal/pkg/chat/application/domain"
)

const userKey = "auth.user"

// Middleware rejects requests without a valid credential. The token comes
// from the Authorization header or, for browser sockets, the token query parameter.
func Middleware(gate *Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := gate.Authenticate(c.Request.Context(), credential(c.Request))
		if err != nil {
			_ = c.Error(err)
			status := http.StatusUnauthorized
			if errors.Is(err, ErrLookup) {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// User returns the identity stored by Middleware.
func User(c *gin.Context) (chat.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return chat.User{}, false
	}
	u, ok := v.(chat.User)
	return u, ok
}

func credential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
