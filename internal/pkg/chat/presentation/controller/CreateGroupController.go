package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-chatline/internal/infrastructure/realtime"
	"go-chatline/internal/pkg/chat/application/usecase"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
	userport "go-chatline/internal/repository/port"
)

// CreateGroupController handles the group creation endpoint
// One controller per endpoint
type CreateGroupController struct {
	UC       *usecase.CreateGroupUseCase
	registry *realtime.Registry
}

func NewCreateGroupController(repo repository.ChatRepository, users userport.UserRepository, registry *realtime.Registry) *CreateGroupController {
	return &CreateGroupController{UC: usecase.NewCreateGroupUseCase(repo, users), registry: registry}
}

type createGroupRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members"`
}

// Handle creates the group and subscribes every live connection of its
// members to the new room.
func (h *CreateGroupController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req createGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		group, err := h.UC.Execute(ctx, usecase.CreateGroupInput{
			Name:      req.Name,
			CreatorID: user.ID,
			MemberIDs: req.Members,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		for _, memberID := range group.MemberIDs {
			h.registry.JoinUser(group.ID, memberID)
		}

		c.JSON(http.StatusCreated, group)
	}
}
