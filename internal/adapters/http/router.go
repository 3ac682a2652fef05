package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/adapters/signal"
	"github.com/dkeye/watchroom/internal/app"
	"github.com/dkeye/watchroom/internal/command"
	"github.com/dkeye/watchroom/internal/config"
	"github.com/dkeye/watchroom/internal/core"
)

const sessionCookie = "WatchroomSessions"

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// Deps are the collaborators the router serves.
type Deps struct {
	Rooms    core.RoomService
	Audit    core.AuditLog
	Registry *app.Registry
	Signal   *signal.SignalWSController
}

type handlers struct {
	Deps
	dispatcher *command.Dispatcher
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionCookie, store))
	r.Use(ClientTokenMiddleware())

	h := &handlers{Deps: deps, dispatcher: command.NewDispatcher(deps.Rooms)}

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")

	r.GET("/health", h.health)

	api := r.Group("/api")
	api.POST("/session", h.login)
	api.DELETE("/session", h.logout)

	member := api.Group("", h.requireActor)
	member.GET("/session", h.whoami)
	member.POST("/commands", h.execute)
	member.GET("/room", h.room)
	member.GET("/members", h.members)
	member.GET("/log", h.auditLog)

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws endpoint hit")
		deps.Signal.HandleSignal(ctx, c)
	})

	return r
}
