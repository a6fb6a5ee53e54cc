package v1

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"go-chatline/internal/infrastructure/auth"
	"go-chatline/internal/infrastructure/logger"
	httpHandler "go-chatline/internal/pkg/chat/presentation/http"
)

// NewEngine builds the gin engine: recovery, access log, CORS, health check
// and the authenticated /api/v1 routes.
func NewEngine(log zerolog.Logger, gate *auth.Gate, deps httpHandler.Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(log), cors.New(corsConfig(deps.AllowedOrigins)))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	RegisterRoutes(r, gate, deps)
	return r
}

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, gate *auth.Gate, deps httpHandler.Dependencies) {
	v1 := r.Group("/api/v1", auth.Middleware(gate))
	httpHandler.RegisterRoutes(v1, deps)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
