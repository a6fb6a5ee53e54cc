package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "go-chatline/internal/pkg/chat/application/domain"
	"go-chatline/internal/pkg/chat/application/usecase"
	userport "go-chatline/internal/repository/port"
)

// ListUsersController returns every other user for the contact sidebar
type ListUsersController struct {
	UC *usecase.ListUsersUseCase
}

func NewListUsersController(users userport.UserRepository) *ListUsersController {
	return &ListUsersController{UC: usecase.NewListUsersUseCase(users)}
}

func (h *ListUsersController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		users, err := h.UC.Execute(ctx, usecase.ListUsersInput{UserID: user.ID})
		if err != nil {
			writeError(c, err)
			return
		}
		if users == nil {
			users = []chat.User{}
		}
		c.JSON(http.StatusOK, users)
	}
}
