package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "go-chatline/internal/pkg/chat/application/domain"
	"go-chatline/internal/pkg/chat/application/usecase"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

// ListGroupsController returns the caller's groups
type ListGroupsController struct {
	UC *usecase.ListGroupsUseCase
}

func NewListGroupsController(repo repository.ChatRepository) *ListGroupsController {
	return &ListGroupsController{UC: usecase.NewListGroupsUseCase(repo)}
}

func (h *ListGroupsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		groups, err := h.UC.Execute(ctx, usecase.ListGroupsInput{UserID: user.ID})
		if err != nil {
			writeError(c, err)
			return
		}
		if groups == nil {
			groups = []chat.Group{}
		}
		c.JSON(http.StatusOK, groups)
	}
}
