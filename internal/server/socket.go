package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	errs "github.com/matzehuels/trackplan/pkg/errors"
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/session"
)

const (
	eventPath    = "path"
	typeSuccess  = "success"
	typeError    = "error"
	writeTimeout = 10 * time.Second
)

// pathReply is the envelope of every message sent on /path.
type pathReply struct {
	Type  string      `json:"type"`
	Event string      `json:"event"`
	Path  []grid.Cell `json:"path,omitempty"`
	Car   *int        `json:"car,omitempty"`
	Cost  float64     `json:"cost,omitempty"`
	Code  string      `json:"code,omitempty"`
	Error string      `json:"error,omitempty"`
}

func successReply(res session.PathResult) pathReply {
	car := res.Agent
	return pathReply{Type: typeSuccess, Event: eventPath, Path: res.Path, Car: &car, Cost: res.Cost}
}

func errorReply(err error) pathReply {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	return pathReply{Type: typeError, Event: eventPath, Code: string(code), Error: errs.UserMessage(err)}
}

// handlePathSocket serves path requests over a WebSocket. Each text message
// is one request and gets exactly one reply. Request errors are replied to
// and the connection stays open; it closes when the client goes away or a
// write fails.
func (s *Server) handlePathSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	logger := s.logger.With("request_id", RequestIDFromContext(r.Context()))
	logger.Debug("path socket opened", "remote", r.RemoteAddr)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("path socket read failed", "err", err)
			}
			return
		}

		reply := s.planFromMessage(r.Context(), payload)
		if reply.Type == typeError {
			logger.Info("path request failed", "code", reply.Code, "err", reply.Error)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("path socket write failed", "err", err)
			return
		}
	}
}

func (s *Server) planFromMessage(ctx context.Context, payload []byte) pathReply {
	var req session.PathRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorReply(errs.Wrap(errs.ErrCodeInvalidRequest, err, "invalid path request: %v", err))
	}
	res, err := s.session.NewPath(ctx, req)
	if err != nil {
		return errorReply(err)
	}
	return successReply(res)
}
