package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-chatline/internal/pkg/chat/application/usecase"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
	userport "go-chatline/internal/repository/port"
)

// GetGroupMessagesController handles fetching a group's history (one controller per endpoint)
type GetGroupMessagesController struct {
	UC      *usecase.GetGroupMessagesUseCase
	Hydrate *usecase.HydrateMessagesUseCase
}

func NewGetGroupMessagesController(repo repository.ChatRepository, users userport.UserRepository) *GetGroupMessagesController {
	return &GetGroupMessagesController{
		UC:      usecase.NewGetGroupMessagesUseCase(repo),
		Hydrate: usecase.NewHydrateMessagesUseCase(repo, users),
	}
}

func (h *GetGroupMessagesController) Handle() gin.HandlerFunc {
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

		msgs, err := h.UC.Execute(ctx, usecase.GetGroupMessagesInput{GroupID: groupID, UserID: user.ID})
		if err != nil {
			writeError(c, err)
			return
		}
		views, err := h.Hydrate.Execute(ctx, msgs)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}
