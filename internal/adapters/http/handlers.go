package http

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/adapters/signal"
	"github.com/dkeye/watchroom/internal/command"
	"github.com/dkeye/watchroom/internal/core"
	"github.com/dkeye/watchroom/internal/domain"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=36"`
}

type CommandRequest struct {
	Line string `json:"line" binding:"required"`
}

type SessionResponse struct {
	Username string `json:"username"`
}

type LogResponse struct {
	Lines []string `json:"lines"`
	Total int      `json:"total"`
}

// StatusCode maps a command outcome to HTTP.
func StatusCode(s command.Status) int {
	switch s {
	case command.StatusSuccess:
		return http.StatusOK
	case command.StatusDenied:
		return http.StatusForbidden
	case command.StatusNotFound:
		return http.StatusNotFound
	case command.StatusInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func abortResult(c *gin.Context, res command.Result) {
	c.AbortWithStatusJSON(StatusCode(res.Status), res)
}

func (h *handlers) health(c *gin.Context) {
	room := h.Rooms.Room(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"room":        room.ID,
		"revision":    room.Revision,
		"connections": len(h.Registry.Signals()),
	})
}

// login binds this client to an existing room member. Members are added
// by the admin with the add command; logging in never creates one.
func (h *handlers) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortResult(c, command.FromError(command.ErrBadArguments.Withf("username is required: %v", err)))
		return
	}
	if _, ok := h.Rooms.Room(c.Request.Context()).UserByName(req.Username); !ok {
		abortResult(c, command.FromError(domain.ErrUnknownUser.Withf("%s is not in the room", req.Username)))
		return
	}

	sess := sessions.Default(c)
	sess.Set(signal.SessionUsernameKey, req.Username)
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session"})
		return
	}
	h.Registry.Bind(core.SessionID(c.GetString("client_token")), req.Username)
	log.Info().Str("module", "adapters.http").Str("actor", req.Username).Msg("session opened")
	c.JSON(http.StatusOK, SessionResponse{Username: req.Username})
}

func (h *handlers) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	h.Registry.Unbind(core.SessionID(c.GetString("client_token")))
	c.Status(http.StatusNoContent)
}

// requireActor resolves the acting username from the cookie session.
func (h *handlers) requireActor(c *gin.Context) {
	name, _ := sessions.Default(c).Get(signal.SessionUsernameKey).(string)
	if name == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, command.Result{
			Status: command.StatusDenied, Code: "no_session", Message: "log in with POST /api/session first",
		})
		return
	}
	c.Set("actor", name)
	c.Next()
}

func (h *handlers) whoami(c *gin.Context) {
	c.JSON(http.StatusOK, SessionResponse{Username: c.GetString("actor")})
}

func (h *handlers) execute(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortResult(c, command.FromError(command.ErrBadArguments.Withf("line is required")))
		return
	}
	ctx := c.Request.Context()
	actor := c.GetString("actor")
	res := h.dispatcher.Execute(ctx, actor, req.Line)
	if res.OK() && h.Signal != nil {
		h.Signal.Settle(ctx)
	}
	c.JSON(StatusCode(res.Status), res)
}

func (h *handlers) room(c *gin.Context) {
	c.JSON(http.StatusOK, h.Rooms.Room(c.Request.Context()))
}

func (h *handlers) members(c *gin.Context) {
	c.JSON(http.StatusOK, h.Rooms.Members(c.Request.Context()))
}

// auditLog serves the event log; ?tail=N limits it to the last N lines.
func (h *handlers) auditLog(c *gin.Context) {
	lines, err := h.Audit.Lines()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("read audit log")
		abortResult(c, command.FromError(domain.ErrStoreUnavailable.Withf("audit log unavailable")))
		return
	}
	total := len(lines)
	if tail := c.Query("tail"); tail != "" {
		n, err := strconv.Atoi(tail)
		if err != nil || n < 0 {
			abortResult(c, command.FromError(command.ErrBadArguments.Withf("tail must be a non-negative number")))
			return
		}
		if n < total {
			lines = lines[total-n:]
		}
	}
	c.JSON(http.StatusOK, LogResponse{Lines: lines, Total: total})
}
