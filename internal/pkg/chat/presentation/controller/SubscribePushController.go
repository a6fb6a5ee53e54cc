package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "go-chatline/internal/pkg/chat/application/domain"
	"go-chatline/internal/pkg/chat/application/usecase"
	userport "go-chatline/internal/repository/port"
)

// SubscribePushController stores the caller's push subscription
type SubscribePushController struct {
	UC *usecase.SubscribePushUseCase
}

func NewSubscribePushController(users userport.UserRepository) *SubscribePushController {
	return &SubscribePushController{UC: usecase.NewSubscribePushUseCase(users)}
}

func (h *SubscribePushController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req chat.PushSubscription
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.SubscribePushInput{UserID: user.ID, Subscription: req}); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "subscribed"})
	}
}
