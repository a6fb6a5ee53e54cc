package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-chatline/internal/infrastructure/auth"
	chat "go-chatline/internal/pkg/chat/application/domain"
)

const requestTimeout = 3 * time.Second

// writeError maps use case errors to a status and a {"error": ...} body.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chat.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chat.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, chat.ErrMalformed),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrInvalidType),
		errors.Is(err, chat.ErrInvalidReply),
		errors.Is(err, chat.ErrGroupTooSmall),
		errors.Is(err, chat.ErrGroupNameEmpty):
		status = http.StatusBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// currentUser returns the authenticated caller or aborts with 401.
func currentUser(c *gin.Context) (chat.User, bool) {
	u, ok := auth.User(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	}
	return u, ok
}

// pathID reads a uuid path parameter or aborts with 400.
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if err := uuid.Validate(id); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": name + " must be a uuid"})
		return "", false
	}
	return id, true
}
