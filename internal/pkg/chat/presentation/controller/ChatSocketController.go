package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"go-chatline/internal/config"
	"go-chatline/internal/infrastructure/realtime"
	"go-chatline/internal/pkg/chat/application/dispatcher"
	chat "go-chatline/internal/pkg/chat/application/domain"
	"go-chatline/internal/pkg/chat/application/event"
	"go-chatline/internal/pkg/chat/application/usecase"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

const (
	defaultReadTimeout = 60 * time.Second
	defaultReadLimit   = 1 << 20
	inboundQueueSize   = 64
)

// ChatSocketController handles the websocket endpoint for realtime chat traffic.
type ChatSocketController struct {
	registry       *realtime.Registry
	dispatcher     *dispatcher.Dispatcher
	resolveRoomsUC *usecase.ResolveRoomsUseCase
	upgrader       websocket.Upgrader
	cfg            config.SocketConfig
	log            zerolog.Logger
}

func NewChatSocketController(
	repo repository.ChatRepository,
	registry *realtime.Registry,
	d *dispatcher.Dispatcher,
	cfg config.SocketConfig,
	allowedOrigins []string,
	log zerolog.Logger,
) *ChatSocketController {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = defaultReadLimit
	}
	log = log.With().Str("component", "socket").Logger()
	return &ChatSocketController{
		registry:       registry,
		dispatcher:     d,
		resolveRoomsUC: usecase.NewResolveRoomsUseCase(repo),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins, log),
		},
		cfg: cfg,
		log: log,
	}
}

// originChecker allows requests without an Origin header (non-browser
// clients), any origin when the list holds "*", and listed origins otherwise.
func originChecker(allowed []string, log zerolog.Logger) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	_, wildcard := set["*"]
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		log.Warn().Str("origin", origin).Msg("blocked websocket connection from disallowed origin")
		return false
	}
}

// Handle upgrades HTTP connections to websocket. Frames are read on the
// request goroutine and handled by a separate drain goroutine, so a
// disconnect unregisters the connection even while a handler is running.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		log := ctl.log.With().Str("user_id", user.ID).Logger()

		// Group lookup failure degrades to no rooms; the connection still opens.
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		rooms, err := ctl.resolveRoomsUC.Execute(ctx, usecase.ResolveRoomsInput{UserID: user.ID})
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("room resolution failed, connecting without rooms")
			rooms = nil
		}

		ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}

		conn := realtime.NewConnection(user.ID, ws, ctl.cfg.SendBuffer)
		log = log.With().Str("conn_id", conn.ID).Logger()

		if err := ctl.registry.Register(conn, rooms...); err != nil {
			log.Info().Err(err).Msg("connection rejected")
			conn.Close(websocket.CloseTryAgainLater, "server shutting down")
			return
		}
		log.Info().Int("rooms", len(rooms)).Msg("connection opened")

		// A connection closed from the write side leaves the registry at once.
		go func() {
			<-conn.Done()
			ctl.registry.Unregister(conn.ID)
		}()

		closeCode, closeReason := websocket.CloseNormalClosure, "session closed"
		defer func() {
			conn.Close(closeCode, closeReason)
			ctl.registry.Unregister(conn.ID)
			log.Info().Msg("connection closed")
		}()

		// Closing conn cancels connCtx, which abandons events still queued
		// in the drain goroutine or waiting for their conversation.
		connCtx, stop := conn.Context(context.Background())
		defer stop()

		events := make(chan event.Inbound, inboundQueueSize)
		go ctl.drain(connCtx, conn, user, events)

		ws.SetReadLimit(ctl.cfg.MaxMessageBytes)
		_ = ws.SetReadDeadline(time.Now().Add(ctl.cfg.ReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(ctl.cfg.ReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					log.Debug().Err(err).Msg("read failed")
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(ctl.cfg.ReadTimeout))

			ev, err := event.Decode(data)
			if err != nil {
				log.Debug().Err(err).Msg("malformed frame dropped")
				continue
			}
			select {
			case events <- ev:
			default:
				log.Warn().Msg("inbound queue full, closing connection")
				closeCode, closeReason = websocket.CloseTryAgainLater, "too many pending events"
				return
			}
		}
	}
}

// drain dispatches events in receipt order until the connection closes.
func (ctl *ChatSocketController) drain(ctx context.Context, conn *realtime.Connection, user chat.User, events <-chan event.Inbound) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			ctl.dispatcher.Dispatch(ctx, conn, user, ev)
		}
	}
}
