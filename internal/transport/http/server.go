package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/DaveMcBlame1/chatroom/internal/auth"
	"github.com/DaveMcBlame1/chatroom/internal/config"
	"github.com/DaveMcBlame1/chatroom/internal/core"
)

// NewServer builds the HTTP server: REST API under /api and the WebSocket
// gateway on /ws.
func NewServer(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	authHandlers := NewAuthHandlers(authService, logger)
	chatHandlers := NewChatHandlers(hub, logger)

	api := router.Group("/api")
	api.POST("/register", authHandlers.Register)
	api.POST("/login", authHandlers.Login)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authService, logger))
	authed.GET("/messages", chatHandlers.ListMessages)
	authed.GET("/presence", chatHandlers.Presence)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, WSOptionsFromConfig(cfg), logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
