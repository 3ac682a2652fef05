package signal

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/core"
)

func (ctl *SignalWSController) handleHello(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type helloPayload struct {
		Type     string `json:"type"`
		Username string `json:"username"`
	}
	var p helloPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("bad hello payload")
		sendError(conn, "", "bad_payload", "hello needs a username")
		return
	}
	if p.Username == "" {
		sendError(conn, "", "bad_payload", "empty username")
		return
	}
	if _, ok := ctl.Rooms.Room(ctx).UserByName(p.Username); !ok {
		sendError(conn, "", "unknown_user", p.Username+" is not in the room")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("username", p.Username).Msg("hello")
	ctl.Registry.Bind(sid, p.Username)
	ctl.handleWhoAmI(ctx, sid, conn)
}

func (ctl *SignalWSController) handleWhoAmI(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
) {
	username, _ := ctl.Registry.Username(sid)
	resp := struct {
		Type     string `json:"type"`
		Username string `json:"username,omitempty"`
		Revision uint64 `json:"revision"`
	}{
		Type:     "whoami",
		Username: username,
		Revision: ctl.Rooms.Room(ctx).Revision,
	}
	sendJSON(conn, resp)
}
