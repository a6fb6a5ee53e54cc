package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"go-chatline/internal/config"
	"go-chatline/internal/infrastructure/realtime"
	"go-chatline/internal/pkg/chat/application/dispatcher"
	"go-chatline/internal/pkg/chat/presentation/controller"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
	userport "go-chatline/internal/repository/port"
)

// Dependencies are the process-wide services the chat endpoints share.
type Dependencies struct {
	Chats          repository.ChatRepository
	Users          userport.UserRepository
	Registry       *realtime.Registry
	Dispatcher     *dispatcher.Dispatcher
	Socket         config.SocketConfig
	AllowedOrigins []string
	Log            zerolog.Logger
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
// The group is expected to be authenticated already.
func RegisterRoutes(g *gin.RouterGroup, deps Dependencies) {
	createGroupCtl := controller.NewCreateGroupController(deps.Chats, deps.Users, deps.Registry)
	listGroupsCtl := controller.NewListGroupsController(deps.Chats)
	deleteGroupCtl := controller.NewDeleteGroupController(deps.Chats, deps.Registry)
	groupMsgsCtl := controller.NewGetGroupMessagesController(deps.Chats, deps.Users)
	directMsgsCtl := controller.NewGetDirectMessagesController(deps.Chats, deps.Users)
	listUsersCtl := controller.NewListUsersController(deps.Users)
	subscribeCtl := controller.NewSubscribePushController(deps.Users)
	socketCtl := controller.NewChatSocketController(deps.Chats, deps.Registry, deps.Dispatcher, deps.Socket, deps.AllowedOrigins, deps.Log)

	// POST /api/v1/groups -> create a group
	g.POST("/groups", createGroupCtl.Handle())

	// GET /api/v1/groups -> groups of the caller
	g.GET("/groups", listGroupsCtl.Handle())

	// DELETE /api/v1/groups/:groupId -> delete a group (admin only)
	g.DELETE("/groups/:groupId", deleteGroupCtl.Handle())

	// GET /api/v1/groups/:groupId/messages -> group history
	g.GET("/groups/:groupId/messages", groupMsgsCtl.Handle())

	// GET /api/v1/messages/:receiverId -> direct history with another user
	g.GET("/messages/:receiverId", directMsgsCtl.Handle())

	// GET /api/v1/users -> every user except the caller
	g.GET("/users", listUsersCtl.Handle())

	// POST /api/v1/notifications/subscribe -> store the caller's push subscription
	g.POST("/notifications/subscribe", subscribeCtl.Handle())

	// GET /api/v1/ws -> websocket endpoint for realtime chat
	g.GET("/ws", socketCtl.Handle())
}
