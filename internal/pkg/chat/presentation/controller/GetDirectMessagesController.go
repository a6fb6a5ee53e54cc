package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-chatline/internal/pkg/chat/application/usecase"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
	userport "go-chatline/internal/repository/port"
)

// GetDirectMessagesController returns the conversation between the caller and another user
type GetDirectMessagesController struct {
	UC      *usecase.GetDirectMessagesUseCase
	Hydrate *usecase.HydrateMessagesUseCase
}

func NewGetDirectMessagesController(repo repository.ChatRepository, users userport.UserRepository) *GetDirectMessagesController {
	return &GetDirectMessagesController{
		UC:      usecase.NewGetDirectMessagesUseCase(repo),
		Hydrate: usecase.NewHydrateMessagesUseCase(repo, users),
	}
}

func (h *GetDirectMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		peerID, ok := pathID(c, "receiverId")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.GetDirectMessagesInput{UserID: user.ID, PeerID: peerID})
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
