package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-chatline/internal/infrastructure/realtime"
	"go-chatline/internal/pkg/chat/application/usecase"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

// DeleteGroupController removes a group on behalf of its admin
type DeleteGroupController struct {
	UC       *usecase.DeleteGroupUseCase
	registry *realtime.Registry
}

func NewDeleteGroupController(repo repository.ChatRepository, registry *realtime.Registry) *DeleteGroupController {
	return &DeleteGroupController{UC: usecase.NewDeleteGroupUseCase(repo), registry: registry}
}

func (h *DeleteGroupController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		groupID, ok := pathID(c, "groupId")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		group, err := h.UC.Execute(ctx, usecase.DeleteGroupInput{GroupID: groupID, ActorID: user.ID})
		if err != nil {
			writeError(c, err)
			return
		}
		h.registry.DropRoom(group.ID)

		c.JSON(http.StatusOK, gin.H{"id": group.ID, "deleted": true})
	}
}
