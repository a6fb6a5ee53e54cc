package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	v1 "go-chatline/cmd/api/router/v1"
	"go-chatline/internal/config"
	"go-chatline/internal/infrastructure/auth"
	cacheAdapter "go-chatline/internal/infrastructure/cache/adapter"
	"go-chatline/internal/infrastructure/database"
	"go-chatline/internal/infrastructure/logger"
	pushAdapter "go-chatline/internal/infrastructure/push/adapter"
	pport "go-chatline/internal/infrastructure/push/port"
	queueAdapter "go-chatline/internal/infrastructure/queue/adapter"
	"go-chatline/internal/infrastructure/realtime"
	"go-chatline/internal/pkg/chat/application/dispatcher"
	"go-chatline/internal/pkg/chat/application/event"
	"go-chatline/internal/pkg/chat/application/task"
	chatRepo "go-chatline/internal/pkg/chat/persistence/repository/adapter"
	httpHandler "go-chatline/internal/pkg/chat/presentation/http"
	userAdapter "go-chatline/internal/repository/adapter"
	userport "go-chatline/internal/repository/port"
)

const startupTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if envErr != nil {
		log.Debug().Err(envErr).Msg(".env file not loaded")
	}
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancelStart := context.WithTimeout(ctx, startupTimeout)
	defer cancelStart()

	pool, err := database.Connect(startCtx, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	if err := database.Migrate(startCtx, pool); err != nil {
		log.Error().Err(err).Msg("failed to apply schema")
		return err
	}

	chats := chatRepo.NewPgChatRepository(pool)
	var users userport.UserRepository = userAdapter.NewPgUserRepository(pool)

	var sender pport.Sender
	if cfg.Push.Enabled() {
		webpush, err := pushAdapter.NewWebPushSender(cfg.Push)
		if err != nil {
			log.Error().Err(err).Msg("invalid push configuration")
			return err
		}
		sender = webpush
	} else {
		log.Warn().Msg("VAPID keys not set, push notifications disabled")
		sender = pushAdapter.NoopSender{Log: logger.Component(log, "push")}
	}

	var (
		pusher pport.Dispatcher
		worker *queueAdapter.AsynqServer
	)
	if cfg.RedisURL != "" {
		cache, err := cacheAdapter.NewRedisCache(startCtx, cfg.RedisURL, "chatline:")
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to redis")
			return err
		}
		defer cache.Close()
		users = userAdapter.NewCachedUserRepository(users, cache, cfg.UserCache, log)

		client, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("failed to create queue client")
			return err
		}
		defer client.Close()
		pusher = task.NewQueuedPushDispatcher(client)

		worker, err = queueAdapter.NewAsynqServer(cfg.RedisURL, cfg.Queue, log)
		if err != nil {
			log.Error().Err(err).Msg("failed to create queue worker")
			return err
		}
		task.RegisterPushNotificationTask(worker, sender, log)
	} else {
		inProcess := pushAdapter.NewInProcessDispatcher(sender, 0, log)
		defer inProcess.Close()
		pusher = inProcess
	}

	registry := realtime.NewRegistry(log, event.OnlineUsers)
	d := dispatcher.New(dispatcher.Options{
		Directory: registry,
		Chats:     chats,
		Users:     users,
		Fallback:  dispatcher.NewFallback(users, pusher, cfg.PublicBaseURL, log),
		Log:       log,
	})

	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := v1.NewEngine(log, auth.NewGate(cfg.JWT, users), httpHandler.Dependencies{
		Chats:          chats,
		Users:          users,
		Registry:       registry,
		Dispatcher:     d,
		Socket:         cfg.Socket,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error { return worker.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(log, srv, registry, cfg.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// shutdown closes every socket first: hijacked connections are invisible to
// http.Server.Shutdown.
func shutdown(log zerolog.Logger, srv *http.Server, registry *realtime.Registry, timeout time.Duration) error {
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	registry.Close()
	return srv.Shutdown(ctx)
}
