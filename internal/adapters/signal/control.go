package signal

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/command"
	"github.com/dkeye/watchroom/internal/core"
)

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	sendJSON(conn, resp)
}

type resultFrame struct {
	Type   string         `json:"type"`
	ID     string         `json:"id,omitempty"`
	Result command.Result `json:"result"`
}

func (ctl *SignalWSController) handleCommand(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Line string `json:"line"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		sendError(conn, "", "bad_payload", "command needs a line")
		return
	}
	username, ok := ctl.Registry.Username(sid)
	if !ok {
		sendError(conn, p.ID, "hello_required", "say hello before sending commands")
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(username) {
		log.Debug().Str("module", "signal").Str("actor", username).Msg("rate limited")
		sendError(conn, p.ID, "rate_limited", "too many commands, slow down")
		return
	}

	res := ctl.Dispatcher.Execute(ctx, username, p.Line)
	sendJSON(conn, resultFrame{Type: "result", ID: p.ID, Result: res})
	if res.OK() {
		ctl.Settle(ctx)
	}
}
