package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sidechat/sidechat-server/internal/auth"
	"github.com/sidechat/sidechat-server/internal/config"
	"github.com/sidechat/sidechat-server/internal/core"
	"github.com/sidechat/sidechat-server/internal/service/dispatch"
	"github.com/sidechat/sidechat-server/internal/service/requests"
	"github.com/sidechat/sidechat-server/internal/store"
)

// NewServer builds the HTTP server: REST API under /api plus the /ws event
// socket.
func NewServer(
	hub *core.Hub,
	authService *auth.Service,
	requestService *requests.Service,
	dispatcher *dispatch.Service,
	st store.Store,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(authService, st, logger)
	requestHandlers := NewRequestHandlers(requestService, logger)
	messageHandlers := NewMessageHandlers(dispatcher, logger)

	engine.GET("/health", healthHandler)
	engine.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, logger)))

	api := engine.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/users", userHandlers.ListUsers)
	authed.PUT("/profile", userHandlers.UpdateProfile)
	authed.POST("/requests", requestHandlers.Create)
	authed.GET("/requests", requestHandlers.ListPending)
	authed.PUT("/requests/:id", requestHandlers.Decide)
	authed.POST("/messages", messageHandlers.Send)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
